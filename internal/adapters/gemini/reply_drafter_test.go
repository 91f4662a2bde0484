package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/inbox"
	"github.com/mikey/sheet-inbox/internal/utils"
)

type fakeModel struct {
	parts  []genai.Part
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			m.prompt = string(t)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: m.parts}}},
	}, nil
}

func newDrafter(m generator) *ReplyDrafter {
	return &ReplyDrafter{
		model:         m,
		modelName:     "gemini-test",
		greeting:      "Hola",
		logger:        zap.NewNop(),
		textProcessor: utils.NewTextProcessor(nil),
	}
}

var contact = &core.ContactView{
	Phone:    "111",
	Messages: []inbox.Message{{Text: "fiesta de 15"}},
}

func TestReplyDrafter_DraftReply(t *testing.T) {
	m := &fakeModel{parts: []genai.Part{genai.Text(`{"reply":`), genai.Text(` "Hola! Contame de tu fiesta"}`)}}

	draft, err := newDrafter(m).DraftReply(context.Background(), contact)
	require.NoError(t, err)
	assert.Equal(t, "Hola! Contame de tu fiesta", draft.Text)
	assert.Equal(t, "gemini:gemini-test", draft.Source)
	assert.Contains(t, m.prompt, "fiesta de 15")
}

func TestReplyDrafter_Errors(t *testing.T) {
	_, err := newDrafter(&fakeModel{err: errors.New("quota")}).DraftReply(context.Background(), contact)
	assert.ErrorContains(t, err, "quota")

	_, err = newDrafter(&fakeModel{}).DraftReply(context.Background(), contact)
	assert.ErrorContains(t, err, "empty response")
}

func TestFactory_RequiresKey(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	_, err := NewFactory(cfg, zap.NewNop(), utils.NewTextProcessor(nil)).CreateReplyDrafter()
	assert.Error(t, err)
}

func TestDrafter_CloseWithoutClient(t *testing.T) {
	assert.NoError(t, newDrafter(&fakeModel{}).Close())
}
