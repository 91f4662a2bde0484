package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/sheet-inbox/internal/adapters/prompt"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// generator is the part of *genai.GenerativeModel the drafter uses
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ReplyDrafter is an implementation of core.ReplyDrafter using Google Gemini
type ReplyDrafter struct {
	client        *genai.Client
	model         generator
	modelName     string
	maxBodySize   int
	greeting      string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyDrafter creates a new Gemini reply drafter
func NewReplyDrafter(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	greeting string,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*ReplyDrafter, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(prompt.System))

	return &ReplyDrafter{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		greeting:      greeting,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (d *ReplyDrafter) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// DraftReply asks the model for an opening message
func (d *ReplyDrafter) DraftReply(ctx context.Context, contact *core.ContactView) (*core.ReplyDraft, error) {
	text := prompt.Reply(contact, d.greeting, d.textProcessor, d.maxBodySize)

	resp, err := d.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	responseText := responseText(resp)
	if responseText == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	reply, err := utils.ParseReply(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Gemini reply: %w", err)
	}

	d.logger.Debug("Drafted reply", zap.String("phone", contact.Phone), zap.String("model", d.modelName))

	return &core.ReplyDraft{
		Phone:       contact.Phone,
		Text:        reply,
		Source:      "gemini:" + d.modelName,
		GeneratedAt: time.Now(),
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
