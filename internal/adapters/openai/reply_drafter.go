package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/prompt"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// ReplyDrafter is an implementation of core.ReplyDrafter using OpenAI
type ReplyDrafter struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	greeting      string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyDrafter creates a new OpenAI reply drafter
func NewReplyDrafter(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	greeting string,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ReplyDrafter {
	return &ReplyDrafter{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		greeting:      greeting,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// DraftReply asks the model for an opening message
func (d *ReplyDrafter) DraftReply(ctx context.Context, contact *core.ContactView) (*core.ReplyDraft, error) {
	req := openai.ChatCompletionRequest{
		Model: d.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt.Reply(contact, d.greeting, d.textProcessor, d.maxBodySize),
			},
		},
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
		TopP:        d.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	reply, err := utils.ParseReply(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI reply: %w", err)
	}

	d.logger.Debug("Drafted reply",
		zap.String("phone", contact.Phone),
		zap.String("model", d.modelName),
		zap.String("request_id", resp.ID))

	return &core.ReplyDraft{
		Phone:       contact.Phone,
		Text:        reply,
		Source:      "openai:" + d.modelName,
		GeneratedAt: time.Now(),
	}, nil
}
