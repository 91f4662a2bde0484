// Package scheduler drives the periodic spreadsheet refresh.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/core"
)

// Refresher is the job the poller runs
type Refresher interface {
	Refresh(ctx context.Context) (*core.RefreshResult, error)
}

// Poller runs a Refresher on a cron schedule such as "@every 30s". A run that
// is still going when the next tick fires makes that tick a no-op.
type Poller struct {
	cron    *cron.Cron
	entry   cron.EntryID
	job     Refresher
	spec    string
	timeout time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewPoller creates a poller. timeout bounds each run; zero means no bound.
func NewPoller(job Refresher, spec string, timeout time.Duration, logger *zap.Logger) (*Poller, error) {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		cron:    c,
		job:     job,
		spec:    spec,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	id, err := c.AddFunc(spec, p.run)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	p.entry = id

	return p, nil
}

// Start runs the job once right away and then on schedule
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	// the wrapped job shares the skip-if-running guard with scheduled ticks
	wrapped := p.cron.Entry(p.entry).WrappedJob
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		wrapped.Run()
	}()

	p.cron.Start()
	p.logger.Info("Refresh scheduler started", zap.String("schedule", p.spec))
}

// Stop cancels the running job and waits for it, or for ctx
func (p *Poller) Stop(ctx context.Context) error {
	p.cancel()
	cronDone := p.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop scheduler: %w", ctx.Err())
	}
}

// Next returns when the next scheduled run fires
func (p *Poller) Next() time.Time {
	return p.cron.Entry(p.entry).Next
}

func (p *Poller) run() {
	if p.ctx.Err() != nil {
		return
	}

	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
	}

	if _, err := p.job.Refresh(ctx); err != nil {
		p.logger.Warn("Scheduled refresh failed", zap.Error(err))
	}
}
