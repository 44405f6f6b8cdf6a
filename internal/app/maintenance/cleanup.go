package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/pkg/logger"
)

const (
	defaultJournalRetentionDays = 30
	defaultJournalSpec          = "@daily"
	defaultCacheSpec            = "@hourly"
)

// JournalPruner drops journal entries past their retention window.
type JournalPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// CachePurger drops expired local state entries such as rate limit windows.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Cleaner runs the periodic housekeeping of the local state database: journal
// retention and purging of expired cache entries.
type Cleaner struct {
	journal   JournalPruner
	cache     CachePurger
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	journalSchedule string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithRetentionDays adjusts how long journal entries are kept.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithJournalSchedule overrides the cron schedule for journal retention.
func WithJournalSchedule(schedule string) Option {
	return func(cleaner *Cleaner) {
		if schedule != "" {
			cleaner.journalSchedule = schedule
		}
	}
}

// WithCacheSchedule overrides the cron schedule for cache purging.
func WithCacheSchedule(schedule string) Option {
	return func(cleaner *Cleaner) {
		if schedule != "" {
			cleaner.cacheSchedule = schedule
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips its job.
func NewCleaner(journal JournalPruner, cache CachePurger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		journal:         journal,
		cache:           cache,
		retention:       defaultJournalRetentionDays,
		journalSchedule: defaultJournalSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the jobs and launches the scheduler when at least one is enabled.
func (c *Cleaner) Start() error {
	if c.journal == nil && c.cache == nil {
		return nil
	}

	if c.journal != nil {
		if _, err := c.cron.AddFunc(c.journalSchedule, func() {
			removed, err := c.journal.CleanupOlderThan(context.Background(), c.retention)
			if err != nil {
				c.log.Warn("journal cleanup failed", zap.Error(err))
				return
			}
			c.log.Debug("journal cleanup", zap.Int64("removed", removed))
		}); err != nil {
			return err
		}
	}

	if c.cache != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.cache.PurgeExpired(context.Background()); err != nil {
				c.log.Warn("cache purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially, collecting all failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.journal != nil {
		if _, err := c.journal.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.cache != nil {
		if _, err := c.cache.PurgeExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
