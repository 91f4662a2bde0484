package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/sheet-inbox/internal/sheet"
)

func sampleGroups(t *testing.T) []Group {
	t.Helper()
	records := sheet.Parse("telefono,mensaje,timestamp_ar\n" +
		"111,Consulta por CASAMIENTO,2025-01-01 10:00:00\n" +
		"222,precio del salón,2025-01-02 10:00:00\n" +
		"333,fecha rota,not-a-date\n" +
		"111,seguimos?,2024-12-30 10:00:00\n")
	return GroupRecords(records, DefaultColumns(), NewTimeParser(time.UTC, nil))
}

func TestRank_NewestFirst(t *testing.T) {
	ranked := Rank(sampleGroups(t))
	assert.Equal(t, []string{"222", "111", "333"}, Keys(ranked))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	groups := sampleGroups(t)
	_ = Rank(groups)
	assert.Equal(t, []string{"111", "222", "333"}, Keys(groups))
}

func TestRank_StableForEqualLatest(t *testing.T) {
	groups := []Group{
		{Key: "x", Latest: Epoch},
		{Key: "y", Latest: Epoch},
		{Key: "z", Latest: Epoch},
	}
	assert.Equal(t, []string{"x", "y", "z"}, Keys(Rank(groups)))
}

func TestFilter(t *testing.T) {
	groups := Rank(sampleGroups(t))

	t.Run("empty query keeps order", func(t *testing.T) {
		assert.Equal(t, Keys(groups), Keys(Filter(groups, "")))
	})

	t.Run("matches phone", func(t *testing.T) {
		assert.Equal(t, []string{"222"}, Keys(Filter(groups, "22")))
	})

	t.Run("case insensitive message match", func(t *testing.T) {
		assert.Equal(t, []string{"111"}, Keys(Filter(groups, "casamiento")))
		assert.Equal(t, []string{"222"}, Keys(Filter(groups, "SALÓN")))
	})

	t.Run("matches any message in group", func(t *testing.T) {
		assert.Equal(t, []string{"111"}, Keys(Filter(groups, "seguimos")))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter(groups, "zzz"))
	})
}

func TestIsRecent(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	tests := []struct {
		name   string
		latest time.Time
		window time.Duration
		want   bool
	}{
		{"inside window", now.Add(-5 * time.Minute), window, true},
		{"on boundary", now.Add(-window), window, true},
		{"outside window", now.Add(-16 * time.Minute), window, false},
		{"future", now.Add(time.Hour), window, true},
		{"unparseable", Epoch, window, false},
		{"disabled window", now, 0, false},
		{"day window", now.Add(-20 * time.Hour), 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecent(Group{Latest: tt.latest}, now, tt.window))
		})
	}
}

func TestView_DeletedExcluded(t *testing.T) {
	groups := sampleGroups(t)
	ov := NewOverlay()
	ov.Delete("222")

	assert.Equal(t, []string{"111", "333"}, Keys(View(groups, ov, "")))
	assert.Empty(t, View(groups, ov, "salón"))

	ov.Restore("222")
	assert.Equal(t, []string{"222", "111", "333"}, Keys(View(groups, ov, "")))
}

func TestView_DeletionSurvivesRebuildByKey(t *testing.T) {
	ov := NewOverlay()
	ov.Delete("111")

	rebuilt := sampleGroups(t)
	require.NotEmpty(t, rebuilt)
	assert.NotContains(t, Keys(View(rebuilt, ov, "")), "111")
}

func TestApply_NilOverlay(t *testing.T) {
	groups := sampleGroups(t)
	assert.Len(t, Apply(groups, nil), len(groups))
}
