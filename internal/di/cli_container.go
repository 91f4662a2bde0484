package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/blocklist"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/factory"
	"github.com/mikey/sheet-inbox/internal/logging"
)

// CLIFlags contains the command line flags of the inspector
type CLIFlags struct {
	// Input flags
	File string
	URL  string

	// Output flags
	Query  string
	Format string
	Output string

	// Feed flags
	Window   string
	Timezone string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return createConfigFromFlags(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register sheet source with no cache
	if err := container.Provide(func(f *factory.SourceFactory) (core.SheetSource, error) {
		return f.CreateSheetSource(nil)
	}); err != nil {
		return nil, err
	}

	// Register inbox service, quiet and with the configured drafter
	if err := container.Provide(func(
		source core.SheetSource,
		drafters *factory.DrafterFactory,
		blocked *blocklist.Checker,
		logger *zap.Logger,
		settings core.FeedSettings,
	) (*core.InboxService, error) {
		drafter, err := drafters.CreateReplyDrafter()
		if err != nil {
			return nil, err
		}
		return core.NewInboxService(source, drafter, nil, blocked, logger, settings), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags loads the optional config file and lets flags override it
func createConfigFromFlags(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var v = config.NewEmptyViper()
	if flags.ConfigFile != "" {
		cfg, err := config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		v = cfg.GetViper()
	}

	// a single input on the command line replaces the configured sources
	switch {
	case flags.File != "":
		v.Set("sheet.sources", []map[string]string{})
		v.Set("sheet.url", flags.File)
	case flags.URL != "":
		v.Set("sheet.sources", []map[string]string{})
		v.Set("sheet.url", flags.URL)
	}

	if flags.Window != "" {
		v.Set("feed.recent_window", flags.Window)
	}
	if flags.Timezone != "" {
		v.Set("feed.timezone", flags.Timezone)
	}

	return config.NewFromViper(v), nil
}
