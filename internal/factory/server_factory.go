package factory

import (
	"github.com/mikey/sheet-inbox/internal/adapters/httpapi"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/ports"
	"go.uber.org/zap"
)

// ServerFactory creates the HTTP API server
type ServerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger) *ServerFactory {
	return &ServerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFeedServer creates the API server for inbox
func (f *ServerFactory) CreateFeedServer(inbox httpapi.Inbox) (ports.FeedServer, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, err
	}
	feedCfg, err := f.cfg.GetFeed()
	if err != nil {
		return nil, err
	}

	return httpapi.NewServer(inbox, f.logger, httpapi.Options{
		ListenAddress: serverCfg.ListenAddress,
		ReadTimeout:   serverCfg.ReadTimeout,
		WriteTimeout:  serverCfg.WriteTimeout,
		Username:      serverCfg.Username,
		Password:      serverCfg.Password,
		EditURL:       f.cfg.GetString("sheet.edit_url"),
		Location:      feedCfg.Location,
	}), nil
}
