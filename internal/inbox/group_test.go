package inbox

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/sheet-inbox/internal/sheet"
)

func rec(phone, msg, ts, fallback string) sheet.Record {
	return sheet.Record{"telefono": phone, "mensaje": msg, "timestamp_ar": ts, "fecha": fallback}
}

func TestGroupRecords_TrimmedPhoneSharesGroup(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec(" 555-1 ", "hola", "2025-01-01 10:00:00", ""),
		rec("555-1", "precio?", "2025-01-01 11:00:00", ""),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	assert.Equal(t, "555-1", groups[0].Key)
	assert.Len(t, groups[0].Messages, 2)
}

func TestGroupRecords_SkipsBlankPhone(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("", "sin telefono", "2025-01-01 10:00:00", ""),
		rec("   ", "espacios", "2025-01-01 10:00:00", ""),
		{"mensaje": "sin columna"},
		rec("555", "ok", "2025-01-01 10:00:00", ""),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	assert.Equal(t, "555", groups[0].Key)
}

func TestGroupRecords_NoPunctuationNormalization(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("+54 11 5555-1234", "a", "", ""),
		rec("541155551234", "b", "", ""),
	}, DefaultColumns(), nil)

	assert.Len(t, groups, 2)
}

func TestGroupRecords_SortsMessagesNewestFirst(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("555", "primero", "2025-01-01 10:00:00", ""),
		rec("555", "segundo", "2025-01-02 10:00:00", ""),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	msgs := groups[0].Messages
	assert.Equal(t, "segundo", msgs[0].Text)
	assert.Equal(t, "primero", msgs[1].Text)
	assert.Equal(t, "2025-01-02 10:00:00", groups[0].LatestRaw)
	assert.True(t, groups[0].Latest.Equal(msgs[0].At))
}

func TestGroupRecords_StableTies(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("555", "a", "2025-01-01 10:00:00", ""),
		rec("555", "b", "2025-01-01 10:00:00", ""),
		rec("555", "c", "garbage", ""),
		rec("555", "d", "garbage", ""),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	var texts []string
	for _, m := range groups[0].Messages {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts)
}

func TestGroupRecords_UnparseableDateSortsOldest(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("555", "roto", "not-a-date", ""),
		rec("555", "bien", "2020-05-05 08:00:00", ""),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	msgs := groups[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "bien", msgs[0].Text)
	assert.Equal(t, "roto", msgs[1].Text)
	assert.True(t, msgs[1].At.Equal(Epoch))
	assert.Equal(t, "not-a-date", msgs[1].Timestamp)
}

func TestGroupRecords_TimestampFallback(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("555", "a", "", "2025-03-01 09:00:00"),
		rec("555", "b", "2025-03-02 09:00:00", "1999-01-01 00:00:00"),
	}, DefaultColumns(), nil)

	require.Len(t, groups, 1)
	assert.Equal(t, "2025-03-02 09:00:00", groups[0].Messages[0].Timestamp)
	assert.Equal(t, "2025-03-01 09:00:00", groups[0].Messages[1].Timestamp)
}

func TestGroupRecords_FirstAppearanceOrder(t *testing.T) {
	groups := GroupRecords([]sheet.Record{
		rec("b", "1", "2025-01-01", ""),
		rec("a", "2", "2025-01-05", ""),
		rec("b", "3", "2025-01-03", ""),
	}, DefaultColumns(), nil)

	assert.Equal(t, []string{"b", "a"}, Keys(groups))
}

func TestGroupRecords_EmptyInput(t *testing.T) {
	assert.Empty(t, GroupRecords(nil, DefaultColumns(), nil))
	assert.NotNil(t, GroupRecords(nil, DefaultColumns(), nil))
}

func TestGroupRecords_Idempotent(t *testing.T) {
	records := sheet.Parse("telefono,mensaje,timestamp_ar,fecha\n" +
		"555,hola,2025-01-01 10:00:00,\n" +
		"777,\"quiero, info\",,2025-01-03\n" +
		"555,otra,2025-01-02 10:00:00,\n" +
		",nada,2025-01-04 10:00:00,\n")
	tp := NewTimeParser(time.UTC, nil)

	first := GroupRecords(records, DefaultColumns(), tp)
	second := GroupRecords(records, DefaultColumns(), tp)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("GroupRecords not idempotent (-first +second):\n%s", diff)
	}
}

func TestGroupRecords_CustomColumns(t *testing.T) {
	cols := Columns{Phone: "phone", Message: "body", Timestamp: "ts"}
	groups := GroupRecords([]sheet.Record{
		{"phone": "1", "body": "hi", "ts": "2025-01-01T00:00:00Z"},
	}, cols, nil)

	require.Len(t, groups, 1)
	assert.Equal(t, "hi", groups[0].Messages[0].Text)
}
