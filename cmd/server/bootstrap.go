package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/api"
	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/app/maintenance"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/middleware"
	"github.com/charlesng35/fenceadmin/internal/realtime"
	"github.com/charlesng35/fenceadmin/internal/security"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	*app.Stack
	Hub       *realtime.Hub
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine

	unpublish []func()
}

// bootstrapRuntime initialises the console stack, realtime streams, housekeeping and
// the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Requests carry their own approval through X-Confirm.
	stack.Stack, err = app.NewStack(ctx, cfg, app.StackOptions{
		Confirmer: listview.ContextConfirmer{},
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	console := stack.Console
	stack.Hub = realtime.NewHub(realtime.ViewStreams...)
	stack.unpublish = []func(){
		realtime.Publish(stack.Hub, console.Sessions.View()),
		realtime.Publish(stack.Hub, console.Users.View()),
		realtime.Publish(stack.Hub, console.Devices.View()),
		realtime.Publish(stack.Hub, console.Locations.View()),
		realtime.Publish(stack.Hub, console.Companies.View()),
	}

	if cfg.Views.AutoRefresh {
		if err := console.Sessions.SetAutoRefresh(ctx, true); err != nil {
			return nil, fmt.Errorf("enable auto refresh: %w", err)
		}
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Journal, stack.Cache,
			maintenance.WithRetentionDays(cfg.Maintenance.JournalRetentionDays),
			maintenance.WithJournalSchedule(cfg.Maintenance.JournalSchedule),
			maintenance.WithCacheSchedule(cfg.Maintenance.CacheSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.RateStore = middleware.NewDatabaseRateStore(stack.Cache)

	audit := security.NewAuditService(cfg, stack.KeySource)
	for _, check := range audit.Run(ctx).Checks {
		if check.Status != security.StatusPass {
			log.Warn("security audit",
				zap.String("check", check.ID),
				zap.String("status", string(check.Status)),
				zap.String("message", check.Message),
			)
		}
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		DB:        stack.DB,
		Sessions:  stack.Sessions,
		Console:   console,
		Hub:       stack.Hub,
		RateStore: stack.RateStore,
		Audit:     audit,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	var errs error
	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		errs = multierr.Append(errs, s.Cleaner.RunOnce(ctx))
	}

	for _, stop := range s.unpublish {
		stop()
	}

	if s.Stack != nil {
		errs = multierr.Append(errs, s.Stack.Close())
	}

	for _, err := range multierr.Errors(errs) {
		log.Warn("shutdown", zap.Error(err))
	}
}
