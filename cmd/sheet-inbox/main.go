package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/di"
	"github.com/mikey/sheet-inbox/internal/factory"
	"github.com/mikey/sheet-inbox/internal/ports"
	"github.com/mikey/sheet-inbox/internal/scheduler"
)

var configFile = flag.String("config", "", "Path to config file (searches the default locations if empty)")

const shutdownTimeout = 15 * time.Second

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server ports.FeedServer,
	poller *scheduler.Poller,
	drafter core.ReplyDrafter,
	store factory.SnapshotStore,
) error {
	defer logger.Sync()

	// Start the API before the first refresh so health checks answer right away
	if err := server.Start(); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		return err
	}
	poller.Start()
	logger.Info("Next refresh scheduled", zap.Time("at", poller.Next()))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to stop server", zap.Error(err))
	}
	if err := poller.Stop(ctx); err != nil {
		logger.Error("Failed to stop scheduler", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := drafter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close reply drafter", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if store != nil {
		store.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
