package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/cache"
	"github.com/charlesng35/fenceadmin/internal/database"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	"github.com/charlesng35/fenceadmin/pkg/logger"
)

// Stack is the console wiring shared by the server and the CLI: local state, the
// platform client, the admin session and the views.
type Stack struct {
	DB        *gorm.DB
	Cache     *cache.DatabaseStore
	Client    *upstream.Client
	Sessions  *auth.SessionContext
	Journal   *services.JournalService
	Console   *services.Console
	KeySource StateKeySource
}

// StackOptions tunes NewStack for its caller.
type StackOptions struct {
	Confirmer listview.Confirmer
	Logger    *zap.Logger
}

// sessionRef hands the client the session id once the session context exists.
type sessionRef struct {
	sessions atomic.Pointer[auth.SessionContext]
}

func (r *sessionRef) SessionID() string {
	if s := r.sessions.Load(); s != nil {
		return s.SessionID()
	}
	return ""
}

// NewStack opens the state database, restores the persisted admin session and builds
// the console views.
func NewStack(ctx context.Context, cfg *Config, opts StackOptions) (_ *Stack, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	log := opts.Logger
	if log == nil {
		log = logger.WithModule("bootstrap")
	}

	stack := &Stack{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, stack.Close())
		}
	}()

	stack.DB, err = database.Open(cfg.Database.ConnectionConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err = database.AutoMigrateAndSeed(stack.DB); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}
	stack.Cache = cache.NewDatabaseStore(stack.DB, nil)

	sealKey, source, err := ResolveStateKey(ctx, cfg.State, stack.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve state key: %w", err)
	}
	stack.KeySource = source

	ref := &sessionRef{}
	stack.Client, err = upstream.NewClient(cfg.Upstream.ClientConfig(),
		upstream.WithSessionSource(ref),
		upstream.WithLogger(logger.WithModule("upstream")),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise platform client: %w", err)
	}

	stack.Sessions, err = auth.NewSessionContext(stack.Client,
		auth.NewCacheStateStore(stack.Cache, cfg.State.StorageKey, sealKey),
		auth.WithLogger(logger.WithModule("auth")),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise session context: %w", err)
	}
	ref.sessions.Store(stack.Sessions)

	if err = stack.Sessions.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore admin session: %w", err)
	}

	stack.Journal, err = services.NewJournalService(stack.DB, services.WithJournalActor(stack.Sessions))
	if err != nil {
		return nil, fmt.Errorf("initialise journal: %w", err)
	}

	loc, err := cfg.Views.Location()
	if err != nil {
		return nil, err
	}

	stack.Console, err = services.NewConsole(stack.Client, stack.Sessions, stack.Journal, services.Config{
		PageSize:        cfg.Views.EffectivePageSize(),
		RefreshInterval: cfg.Views.EffectiveRefreshInterval(),
		Location:        loc,
		Confirmer:       opts.Confirmer,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise console: %w", err)
	}

	log.Info("console ready",
		zap.String("state_key", string(source)),
		zap.Bool("signed_in", stack.Sessions.Authenticated()),
	)
	return stack, nil
}

// Close stops the views and releases the database.
func (s *Stack) Close() error {
	if s == nil {
		return nil
	}
	if s.Console != nil {
		s.Console.Close()
	}
	if s.DB != nil {
		return database.Close(s.DB)
	}
	return nil
}
