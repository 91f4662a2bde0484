package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/inbox"
)

func renderContacts() []core.ContactView {
	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	return []core.ContactView{{
		Phone:        "111",
		Messages:     []inbox.Message{{Timestamp: "2025-03-01 10:00:00", Text: "hola", At: at}, {Timestamp: "ayer", Text: "viejo"}},
		MessageCount: 2,
		Latest:       at,
		LatestRaw:    "2025-03-01 10:00:00",
		Recent:       true,
		ReplyURL:     "https://wa.me/111?text=Hola",
	}}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, renderContacts(), time.UTC))

	out := buf.String()
	assert.Contains(t, out, "=== 111 [nuevo] ===")
	assert.Contains(t, out, "2025-03-01 13:00  hola")
	assert.Contains(t, out, "ayer  viejo")
	assert.Contains(t, out, "Responder: https://wa.me/111?text=Hola")
}

func TestWrite_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", nil, nil))
	assert.Equal(t, "No contacts\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, renderContacts(), time.UTC))

	var got []contactRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "111", got[0].Phone)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "ayer", got[0].Messages[1].Date)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "YAML", renderContacts(), time.UTC))

	var got []contactRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hola", got[0].Messages[0].Text)
	assert.True(t, got[0].Recent)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "csv", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
