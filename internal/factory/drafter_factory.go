package factory

import (
	"fmt"

	"github.com/mikey/sheet-inbox/internal/adapters/bedrock"
	"github.com/mikey/sheet-inbox/internal/adapters/gemini"
	"github.com/mikey/sheet-inbox/internal/adapters/openai"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
	"go.uber.org/zap"
)

// DrafterFactory creates reply drafters
type DrafterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewDrafterFactory creates a new drafter factory
func NewDrafterFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *DrafterFactory {
	return &DrafterFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyDrafter creates a reply drafter based on the configuration.
// Provider "none" yields nil and replies fall back to the greeting.
func (f *DrafterFactory) CreateReplyDrafter() (core.ReplyDrafter, error) {
	provider := f.cfg.GetReply().Provider

	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateReplyDrafter()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateReplyDrafter()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateReplyDrafter()
	default:
		return nil, fmt.Errorf("unsupported reply provider: %s", provider)
	}
}
