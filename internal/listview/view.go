package listview

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

// Record is anything a view lists: it must expose a stable id.
type Record interface {
	RecordID() string
}

// Options configures a View.
type Options struct {
	Name            string
	PageSize        int           // 0 disables pagination
	RefreshInterval time.Duration // 0 disables auto refresh
	Fallback        string        // banner for failed loads without a message
	Confirmer       Confirmer
	Logger          *zap.Logger
	OnAction        func(ctx context.Context, o Outcome)
	RefresherOpts   []RefresherOption
}

// View composes a store, a fetch orchestrator, an action dispatcher and an optional
// auto refresher into one list screen.
type View[T Record] struct {
	name       string
	store      *Store[T]
	orch       *Orchestrator[T]
	dispatcher *Dispatcher
	refresher  *Refresher
	log        *zap.Logger
}

// NewView builds a view over fetch.
func NewView[T Record](fetch FetchFunc[T], opts Options) *View[T] {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("view", opts.Name))

	store := NewStore[T](opts.PageSize)
	v := &View[T]{
		name:  opts.Name,
		store: store,
		orch:  NewOrchestrator(opts.Name, store, fetch, opts.Fallback, log),
		log:   log,
	}
	v.dispatcher = &Dispatcher{
		name:      opts.Name,
		state:     store,
		confirmer: opts.Confirmer,
		reload:    v.Load,
		onAction:  opts.OnAction,
		log:       log,
	}
	if opts.RefreshInterval > 0 {
		v.refresher = NewRefresher(opts.RefreshInterval, func(ctx context.Context) {
			if err := v.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
				v.log.Debug("auto refresh failed", zap.Error(err))
			}
		}, opts.RefresherOpts...)
	}
	return v
}

// Name identifies the view in logs, metrics and realtime streams.
func (v *View[T]) Name() string { return v.name }

// Load fetches the current page.
func (v *View[T]) Load(ctx context.Context) error {
	return v.orch.LoadCurrent(ctx)
}

// SetFilter replaces the filter and reloads. Any change returns to page 1.
func (v *View[T]) SetFilter(ctx context.Context, f Filter) error {
	v.store.setFilter(f.Normalize())
	return v.Load(ctx)
}

// UpdateFilter edits the current filter in place and reloads.
func (v *View[T]) UpdateFilter(ctx context.Context, edit func(*Filter)) error {
	f := v.store.Snapshot().Filter
	edit(&f)
	return v.SetFilter(ctx, f)
}

// Navigate applies f and then page (1 based) and loads once. A changed filter without
// a page returns to page 1; page below 1 keeps the current page otherwise.
func (v *View[T]) Navigate(ctx context.Context, f Filter, page int) error {
	v.store.setView(f.Normalize(), page)
	return v.Load(ctx)
}

// SetPage moves to page (1 based) and reloads.
func (v *View[T]) SetPage(ctx context.Context, page int) error {
	v.store.setPage(page)
	return v.Load(ctx)
}

// NextPage advances when a further page exists.
func (v *View[T]) NextPage(ctx context.Context) error {
	snap := v.store.Snapshot()
	if !snap.HasNext() {
		return nil
	}
	return v.SetPage(ctx, snap.Page+1)
}

// PrevPage steps back when not on the first page.
func (v *View[T]) PrevPage(ctx context.Context) error {
	snap := v.store.Snapshot()
	if !snap.HasPrev() {
		return nil
	}
	return v.SetPage(ctx, snap.Page-1)
}

// SetAutoRefresh toggles periodic reloads. Views built without an interval ignore it.
func (v *View[T]) SetAutoRefresh(ctx context.Context, on bool) error {
	if v.refresher == nil {
		return nil
	}
	if on {
		if err := v.refresher.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	} else {
		v.refresher.Stop()
	}
	v.store.setAutoRefresh(on)
	return nil
}

// Dispatch runs a row or form action.
func (v *View[T]) Dispatch(ctx context.Context, a Action) error {
	return v.dispatcher.Dispatch(ctx, a)
}

// Find returns the loaded record with id.
func (v *View[T]) Find(id string) (T, bool) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	for _, record := range v.store.state.Records {
		if record.RecordID() == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the view state.
func (v *View[T]) Snapshot() Snapshot[T] {
	return v.store.Snapshot()
}

// Subscribe registers fn for state changes.
func (v *View[T]) Subscribe(fn func(Snapshot[T])) func() {
	return v.store.Subscribe(fn)
}

// Fail shows err on the error banner without touching records, for operations that
// run outside the dispatcher such as exports.
func (v *View[T]) Fail(err error, fallback string) {
	if err == nil {
		return
	}
	v.store.fail(apperrors.Message(err, fallback))
}

// Dismiss clears the error and success banners.
func (v *View[T]) Dismiss() {
	v.store.dismiss()
}

// Close stops auto refresh and abandons the load in progress.
func (v *View[T]) Close() {
	if v.refresher != nil {
		<-v.refresher.Stop().Done()
		v.store.setAutoRefresh(false)
	}
	v.orch.Cancel()
}

// Reset closes the view and forgets its records, filter, page and banners.
// Subscribers stay registered and receive the empty state.
func (v *View[T]) Reset() {
	v.Close()
	v.store.Reset()
}
