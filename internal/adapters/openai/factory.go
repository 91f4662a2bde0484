package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
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
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if baseURL := f.cfg.GetString("openai.base_url"); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return NewReplyDrafter(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.cfg.GetString("feed.greeting"),
		f.logger,
		f.textProcessor,
	), nil
}
