package listview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher reruns a function on a fixed interval until stopped. A run still in
// progress when the next tick fires causes that tick to be skipped.
type Refresher struct {
	interval time.Duration
	run      func(ctx context.Context)
	newCron  func() *cron.Cron

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// RefresherOption customises a Refresher.
type RefresherOption func(*Refresher)

// WithCronFactory overrides how the scheduler is built, primarily for tests.
func WithCronFactory(factory func() *cron.Cron) RefresherOption {
	return func(r *Refresher) {
		if factory != nil {
			r.newCron = factory
		}
	}
}

// NewRefresher schedules run every interval once started.
func NewRefresher(interval time.Duration, run func(ctx context.Context), opts ...RefresherOption) *Refresher {
	r := &Refresher{
		interval: interval,
		run:      run,
		newCron: func() *cron.Cron {
			return cron.New(
				cron.WithLogger(cron.DiscardLogger),
				cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
			)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the schedule. Runs receive a context derived from parent that Stop
// cancels. Starting a running refresher is a no-op.
func (r *Refresher) Start(parent context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("listview: refresh interval must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	scheduler := r.newCron()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		if ctx.Err() != nil {
			return
		}
		r.run(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("listview: schedule refresh: %w", err)
	}

	scheduler.Start()
	r.cron = scheduler
	r.cancel = cancel
	return nil
}

// Stop cancels in-flight runs and tears the schedule down. It returns a context that
// is done once the scheduler has drained.
func (r *Refresher) Stop() context.Context {
	r.mu.Lock()
	scheduler, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if scheduler == nil {
		return closedContext()
	}
	cancel()
	return scheduler.Stop()
}

// Running reports whether the schedule is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cron != nil
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

func closedContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
