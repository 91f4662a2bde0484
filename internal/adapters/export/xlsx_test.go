package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/inbox"
)

func TestWriteXLSX(t *testing.T) {
	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	contacts := []core.ContactView{
		{
			Phone: "111",
			Messages: []inbox.Message{
				{Timestamp: "2025-03-01 10:00", Text: "segundo", At: at},
				{Timestamp: "ayer", Text: "primero", At: inbox.Epoch},
			},
			MessageCount: 2,
			Latest:       at,
			LatestRaw:    "2025-03-01 10:00",
			Checked:      true,
			ReplyURL:     "https://wa.me/111?text=Hola",
		},
		{Phone: "222", LatestRaw: "sin fecha", Latest: inbox.Epoch},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, contacts, time.FixedZone("ART", -3*60*60)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ContactsSheet, MessagesSheet}, f.GetSheetList())

	rows, err := f.GetRows(ContactsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Teléfono", rows[0][0])
	assert.Equal(t, []string{"111", "segundo", "2025-03-01 10:00", "2", "no", "sí", "https://wa.me/111?text=Hola"}, rows[1])
	assert.Equal(t, "222", rows[2][0])
	assert.Equal(t, "sin fecha", rows[2][2])

	ok, link, err := f.GetCellHyperLink(ContactsSheet, "G2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://wa.me/111?text=Hola", link)

	msgs, err := f.GetRows(MessagesSheet)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"111", "ayer", "primero"}, msgs[2])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, nil))
	assert.NotZero(t, buf.Len())
}
