package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/prompt"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// invoker is the part of *bedrockruntime.Client the drafter uses
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ReplyDrafter is an implementation of core.ReplyDrafter using Amazon Bedrock
type ReplyDrafter struct {
	client        invoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	greeting      string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyDrafter creates a new Bedrock reply drafter
func NewReplyDrafter(
	client invoker,
	modelID string,
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
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		greeting:      greeting,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

func (d *ReplyDrafter) isClaudeMessagesModel() bool {
	return strings.Contains(d.modelID, "anthropic.claude-3") || strings.Contains(d.modelID, "anthropic.claude-sonnet") ||
		strings.Contains(d.modelID, "anthropic.claude-haiku") || strings.Contains(d.modelID, "anthropic.claude-opus")
}

func (d *ReplyDrafter) isAnthropicModel() bool {
	return strings.Contains(d.modelID, "anthropic.")
}

func (d *ReplyDrafter) isAmazonTitanModel() bool {
	return strings.Contains(d.modelID, "amazon.titan")
}

// DraftReply asks the model for an opening message
func (d *ReplyDrafter) DraftReply(ctx context.Context, contact *core.ContactView) (*core.ReplyDraft, error) {
	text := prompt.Reply(contact, d.greeting, d.textProcessor, d.maxBodySize)

	payload, err := d.payload(text)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := d.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(d.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := d.responseText(resp.Body)
	if err != nil {
		return nil, err
	}

	reply, err := utils.ParseReply(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Bedrock reply: %w", err)
	}

	d.logger.Debug("Drafted reply", zap.String("phone", contact.Phone), zap.String("model", d.modelID))

	return &core.ReplyDraft{
		Phone:       contact.Phone,
		Text:        reply,
		Source:      "bedrock:" + d.modelID,
		GeneratedAt: time.Now(),
	}, nil
}

func (d *ReplyDrafter) payload(text string) ([]byte, error) {
	switch {
	case d.isClaudeMessagesModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"system":            prompt.System,
			"max_tokens":        d.maxTokens,
			"temperature":       d.temperature,
			"top_p":             d.topP,
			"messages": []map[string]interface{}{
				{"role": "user", "content": text},
			},
		})
	case d.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               "\n\nHuman: " + prompt.System + "\n\n" + text + "\n\nAssistant:",
			"max_tokens_to_sample": d.maxTokens,
			"temperature":          d.temperature,
			"top_p":                d.topP,
		})
	case d.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt.System + "\n\n" + text,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": d.maxTokens,
				"temperature":   d.temperature,
				"topP":          d.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt.System + "\n\n" + text,
			"max_tokens":  d.maxTokens,
			"temperature": d.temperature,
			"top_p":       d.topP,
		})
	}
}

func (d *ReplyDrafter) responseText(body []byte) (string, error) {
	switch {
	case d.isClaudeMessagesModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, c := range claudeResp.Content {
			if c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
		if b.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return b.String(), nil

	case d.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil

	case d.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		switch {
		case genericResp.Output != "":
			return genericResp.Output, nil
		case genericResp.Text != "":
			return genericResp.Text, nil
		case genericResp.Response != "":
			return genericResp.Response, nil
		default:
			return string(body), nil
		}
	}
}
