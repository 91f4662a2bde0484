package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/ports"
	"github.com/mikey/sheet-inbox/internal/scheduler"
)

const sheet = "telefono,mensaje,timestamp_ar,fecha\n111,hola,2025-03-01 10:00:00,\n"

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o600))
	return path
}

func TestBuildCLIContainer_File(t *testing.T) {
	path := writeSheet(t)
	container, err := BuildCLIContainer(&CLIFlags{File: path, Window: "1h", Timezone: "UTC"})
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.InboxService, cfg *config.Config) {
		res, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Groups)
		assert.Equal(t, "1h", cfg.GetString("feed.recent_window"))
	})
	require.NoError(t, err)
}

func TestBuildContainer_FromFile(t *testing.T) {
	sheetPath := writeSheet(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
sheet:
  sources:
    - id: form
      url: `+sheetPath+`
server:
  listen_address: 127.0.0.1:0
cache:
  type: memory
logging:
  level: error
`), 0o600))

	container, err := BuildContainer(cfgPath)
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.InboxService, srv ports.FeedServer, poller *scheduler.Poller, settings core.FeedSettings) {
		require.Len(t, settings.Sources, 1)
		assert.Equal(t, "form", settings.Sources[0].ID)
		assert.Equal(t, 15*time.Minute, settings.RecentWindow)

		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Len(t, svc.List(""), 1)
		assert.NotNil(t, srv)
		assert.NotNil(t, poller)
	})
	require.NoError(t, err)
}

func TestNewFeedSettings(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("sheet.url", "https://example.com/a.csv")
	v.Set("feed.timezone", "UTC")
	v.Set("feed.columns.phone", "phone")

	settings, err := NewFeedSettings(config.NewFromViper(v))
	require.NoError(t, err)
	assert.Equal(t, []core.Source{{ID: "default", URL: "https://example.com/a.csv"}}, settings.Sources)
	assert.Equal(t, "phone", settings.Columns.Phone)
	assert.Equal(t, 15*time.Minute, settings.RecentWindow)
	assert.Equal(t, time.UTC, settings.TimeParser.Location())
}
