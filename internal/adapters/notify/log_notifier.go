package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/core"
)

// LogNotifier writes new contacts to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyNewContacts implements core.Notifier
func (n *LogNotifier) NotifyNewContacts(_ context.Context, contacts []core.ContactView) error {
	for _, c := range contacts {
		n.logger.Info("New contact",
			zap.String("phone", c.Phone),
			zap.String("latest", c.LatestRaw),
			zap.Int("messages", c.MessageCount),
			zap.String("reply_url", c.ReplyURL))
	}
	return nil
}
