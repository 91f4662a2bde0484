package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/blocklist"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/factory"
	"github.com/mikey/sheet-inbox/internal/inbox"
	"github.com/mikey/sheet-inbox/internal/logging"
	"github.com/mikey/sheet-inbox/internal/ports"
	"github.com/mikey/sheet-inbox/internal/scheduler"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// BuildContainer creates and configures a dependency injection container for
// the daemon. An empty configPath searches the default locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		if configPath != "" {
			return config.NewFromFile(configPath)
		}
		return config.New()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register snapshot cache
	if err := container.Provide(func(f *factory.CacheFactory) (factory.SnapshotStore, error) {
		return f.CreateSnapshotCache()
	}); err != nil {
		return nil, err
	}

	// Register sheet source
	if err := container.Provide(func(f *factory.SourceFactory, store factory.SnapshotStore) (core.SheetSource, error) {
		var snapshots core.SnapshotCache
		if store != nil {
			snapshots = store
		}
		return f.CreateSheetSource(snapshots)
	}); err != nil {
		return nil, err
	}

	// Register reply drafter
	if err := container.Provide(func(f *factory.DrafterFactory) (core.ReplyDrafter, error) {
		return f.CreateReplyDrafter()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register inbox service
	if err := container.Provide(core.NewInboxService); err != nil {
		return nil, err
	}

	// Register feed server
	if err := container.Provide(func(f *factory.ServerFactory, svc *core.InboxService) (ports.FeedServer, error) {
		return f.CreateFeedServer(svc)
	}); err != nil {
		return nil, err
	}

	// Register refresh scheduler
	if err := container.Provide(func(cfg *config.Config, svc *core.InboxService, logger *zap.Logger) (*scheduler.Poller, error) {
		feedCfg, err := cfg.GetFeed()
		if err != nil {
			return nil, err
		}
		return scheduler.NewPoller(svc, feedCfg.Refresh, feedCfg.RefreshTimeout, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers what the daemon and the inspector have in common
func provideShared(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewCacheFactory,
		factory.NewSourceFactory,
		factory.NewDrafterFactory,
		factory.NewNotifierFactory,
		factory.NewServerFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register blocklist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *blocklist.Checker {
		return blocklist.NewChecker(cfg.GetStringSlice("feed.ignored_phones"), logger)
	}); err != nil {
		return err
	}

	// Register feed settings
	return container.Provide(NewFeedSettings)
}

// NewFeedSettings builds the service settings from configuration
func NewFeedSettings(cfg *config.Config) (core.FeedSettings, error) {
	sources, err := cfg.GetSources()
	if err != nil {
		return core.FeedSettings{}, err
	}
	feedCfg, err := cfg.GetFeed()
	if err != nil {
		return core.FeedSettings{}, err
	}

	settings := core.FeedSettings{
		Columns: inbox.Columns{
			Phone:             feedCfg.Columns.Phone,
			Message:           feedCfg.Columns.Message,
			Timestamp:         feedCfg.Columns.Timestamp,
			TimestampFallback: feedCfg.Columns.TimestampFallback,
		},
		TimeParser:   inbox.NewTimeParser(feedCfg.Location, feedCfg.TimestampLayouts),
		RecentWindow: feedCfg.RecentWindow,
		Greeting:     feedCfg.Greeting,
		ReplyBaseURL: feedCfg.ReplyBaseURL,
		DraftTimeout: cfg.GetReply().Timeout,
	}
	for _, src := range sources {
		settings.Sources = append(settings.Sources, core.Source{ID: src.ID, URL: src.URL})
	}

	return settings, nil
}
