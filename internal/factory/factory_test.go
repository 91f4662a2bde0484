package factory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/notify"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/utils"
)

func testConfig(values map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCacheFactory(t *testing.T) {
	store, err := NewCacheFactory(testConfig(nil), zap.NewNop()).CreateSnapshotCache()
	require.NoError(t, err)
	require.NotNil(t, store)
	store.Stop()

	store, err = NewCacheFactory(testConfig(map[string]interface{}{
		"cache.type":        "sqlite",
		"cache.sqlite_path": filepath.Join(t.TempDir(), "nested", "cache.db"),
	}), zap.NewNop()).CreateSnapshotCache()
	require.NoError(t, err)
	store.Stop()

	store, err = NewCacheFactory(testConfig(map[string]interface{}{"cache.enabled": false}), zap.NewNop()).CreateSnapshotCache()
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = NewCacheFactory(testConfig(map[string]interface{}{"cache.type": "redis"}), zap.NewNop()).CreateSnapshotCache()
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestDrafterFactory(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())

	d, err := NewDrafterFactory(testConfig(nil), zap.NewNop(), tp).CreateReplyDrafter()
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = NewDrafterFactory(testConfig(map[string]interface{}{"reply.provider": "openai"}), zap.NewNop(), tp).CreateReplyDrafter()
	assert.ErrorContains(t, err, "API key")

	d, err = NewDrafterFactory(testConfig(map[string]interface{}{
		"reply.provider": "openai",
		"openai.api_key": "k",
	}), zap.NewNop(), tp).CreateReplyDrafter()
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = NewDrafterFactory(testConfig(map[string]interface{}{"reply.provider": "parrot"}), zap.NewNop(), tp).CreateReplyDrafter()
	assert.ErrorContains(t, err, "unsupported reply provider")
}

func TestNotifierFactory(t *testing.T) {
	n, err := NewNotifierFactory(testConfig(nil), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = NewNotifierFactory(testConfig(map[string]interface{}{"notify.type": "log"}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	_, err = NewNotifierFactory(testConfig(map[string]interface{}{"notify.type": "smtp"}), zap.NewNop()).CreateNotifier()
	assert.ErrorContains(t, err, "recipient")

	n, err = NewNotifierFactory(testConfig(map[string]interface{}{
		"notify.type":    "smtp",
		"notify.smtp.to": []string{"staff@example.com"},
	}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPNotifier{}, n)

	_, err = NewNotifierFactory(testConfig(map[string]interface{}{"notify.type": "pager"}), zap.NewNop()).CreateNotifier()
	assert.ErrorContains(t, err, "unsupported notify type")
}

func TestSourceAndServerFactory(t *testing.T) {
	cfg := testConfig(map[string]interface{}{"sheet.url": "https://example.com/a.csv"})
	tp := utils.NewTextProcessor(zap.NewNop())

	src, err := NewSourceFactory(cfg, zap.NewNop(), tp).CreateSheetSource(nil)
	require.NoError(t, err)
	assert.NotNil(t, src)

	_, err = NewSourceFactory(testConfig(map[string]interface{}{"sheet.timeout": "soon"}), zap.NewNop(), tp).CreateSheetSource(nil)
	assert.Error(t, err)

	srv, err := NewServerFactory(cfg, zap.NewNop()).CreateFeedServer(nil)
	require.NoError(t, err)
	assert.NotNil(t, srv)
}
