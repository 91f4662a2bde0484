package gemini

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// Factory creates new instances of ReplyDrafter
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for ReplyDrafter instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyDrafter creates a new ReplyDrafter
func (f *Factory) CreateReplyDrafter() (*ReplyDrafter, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	return NewReplyDrafter(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.cfg.GetString("feed.greeting"),
		f.logger,
		f.textProcessor,
	)
}
