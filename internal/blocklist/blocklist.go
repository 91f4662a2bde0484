package blocklist

import (
	"strings"

	"github.com/mikey/sheet-inbox/internal/inbox"
	"go.uber.org/zap"
)

// Checker tells whether a phone number belongs to the ignored list, such as
// the business's own test numbers
type Checker struct {
	phones map[string]struct{}
	logger *zap.Logger
}

// NewChecker creates a new blocklist checker
func NewChecker(phones []string, logger *zap.Logger) *Checker {
	// Normalize to digits so "+54 9 11..." and "54911..." match
	normalized := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		if d := inbox.Digits(strings.TrimSpace(phone)); d != "" {
			normalized[d] = struct{}{}
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized blocklist checker", zap.Int("phones", len(normalized)))
	}

	return &Checker{
		phones: normalized,
		logger: logger,
	}
}

// IsBlocked checks if the phone is on the ignore list
func (c *Checker) IsBlocked(phone string) bool {
	if c == nil || len(c.phones) == 0 {
		return false
	}

	d := inbox.Digits(phone)
	if d == "" {
		return false
	}

	if _, ok := c.phones[d]; ok {
		if c.logger != nil {
			c.logger.Debug("Phone is blocklisted", zap.String("phone", phone))
		}
		return true
	}

	return false
}

// Len returns the number of distinct blocked numbers
func (c *Checker) Len() int {
	if c == nil {
		return 0
	}
	return len(c.phones)
}
