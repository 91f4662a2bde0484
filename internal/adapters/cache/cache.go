package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no snapshot is cached for a source
	ErrNotFound = errors.New("cache entry not found")
	// ErrExpired is returned when the cached snapshot has outlived its TTL
	ErrExpired = errors.New("cache entry expired")
)

// janitor runs a cleanup function on a ticker until stopped
type janitor struct {
	logger   *zap.Logger
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startJanitor(logger *zap.Logger, freq time.Duration, cleanup func(context.Context) error) *janitor {
	j := &janitor{
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if freq <= 0 {
		close(j.done)
		return j
	}

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cleanup(context.Background()); err != nil {
					j.logger.Error("Failed to clean up cache", zap.Error(err))
				}
			case <-j.stopCh:
				return
			}
		}
	}()
	return j
}

// stop ends the cleanup loop and waits for it to exit
func (j *janitor) stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	<-j.done
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		// no TTL: keep for a long time
		return now.Add(100 * 365 * 24 * time.Hour)
	}
	return now.Add(ttl)
}
