package factory

import (
	"fmt"

	"github.com/mikey/sheet-inbox/internal/adapters/notify"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates new-contact notifiers
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration. Type "none"
// yields nil.
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()

	switch notifyCfg.Type {
	case "", "none":
		return nil, nil
	case "log":
		return notify.NewLogNotifier(f.logger), nil
	case "smtp":
		return notify.NewSMTPNotifier(
			notifyCfg.SMTPAddress,
			notifyCfg.SMTPPort,
			notifyCfg.From,
			notifyCfg.To,
			notifyCfg.SubjectPrefix,
			notifyCfg.Timeout,
			f.logger,
		)
	default:
		return nil, fmt.Errorf("unsupported notify type: %s", notifyCfg.Type)
	}
}
