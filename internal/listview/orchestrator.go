package listview

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/metrics"
)

var (
	// ErrSuperseded is returned by Load when a newer load replaced it before it settled.
	ErrSuperseded = errors.New("listview: load superseded by a newer request")

	errFetchAborted = errors.New("listview: fetch aborted")
)

// Result is what a fetch hands back: one page of records and the server side total.
type Result[T any] struct {
	Records []T
	Total   int
}

// FetchFunc retrieves the records for q. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

// Orchestrator runs fetches against a store with last-request-wins semantics: every
// load cancels its predecessor and only the newest load may write the store.
type Orchestrator[T any] struct {
	name     string
	store    *Store[T]
	fetch    FetchFunc[T]
	fallback string
	log      *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewOrchestrator binds fetch to store. fallback is the banner text for failures that
// carry no displayable message.
func NewOrchestrator[T any](name string, store *Store[T], fetch FetchFunc[T], fallback string, log *zap.Logger) *Orchestrator[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator[T]{
		name:     name,
		store:    store,
		fetch:    fetch,
		fallback: fallback,
		log:      log,
	}
}

// Load fetches q and applies the outcome unless a newer load started meanwhile, in
// which case it returns ErrSuperseded. Loading is cleared even if fetch panics.
func (o *Orchestrator[T]) Load(ctx context.Context, q Query) error {
	return o.load(ctx, func() (Query, uint64) {
		return q, o.store.currentRevision()
	})
}

// LoadCurrent fetches the store's own filter and page. The query is read after the
// generation is claimed, so a later generation never runs an older query, and the
// result is discarded when the filter or page changes before it settles.
func (o *Orchestrator[T]) LoadCurrent(ctx context.Context) error {
	return o.load(ctx, o.store.query)
}

func (o *Orchestrator[T]) load(ctx context.Context, source func() (Query, uint64)) (err error) {
	gen, rev, q, reqCtx, cancel := o.next(ctx, source)
	defer cancel()

	result := Result[T]{}
	fetchErr := errFetchAborted
	defer func() {
		if !o.settle(gen, rev, q, result, fetchErr) {
			err = ErrSuperseded
		}
	}()

	result, fetchErr = o.fetch(reqCtx, q)
	return fetchErr
}

// Cancel aborts the load in progress, if any, leaving records as they are.
func (o *Orchestrator[T]) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.store.abandon(o.generation)
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// Generation returns the number of loads started so far.
func (o *Orchestrator[T]) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

func (o *Orchestrator[T]) next(ctx context.Context, source func() (Query, uint64)) (uint64, uint64, Query, context.Context, context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// The store must move to the new generation before the old fetch is cancelled,
	// otherwise the cancelled fetch could still settle.
	o.generation++
	o.store.begin(o.generation)
	q, rev := source()
	if o.cancel != nil {
		o.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	return o.generation, rev, q, reqCtx, cancel
}

func (o *Orchestrator[T]) settle(gen, rev uint64, q Query, result Result[T], err error) bool {
	message := ""
	if err != nil {
		message = apperrors.Message(err, o.fallback)
	}

	if !o.store.settle(gen, rev, result.Records, result.Total, message) {
		metrics.ViewFetches.WithLabelValues(o.name, "superseded").Inc()
		o.log.Debug("discarded stale load",
			zap.Uint64("generation", gen),
			zap.String("query", q.Key()),
		)
		return false
	}

	if err != nil {
		metrics.ViewFetches.WithLabelValues(o.name, "failed").Inc()
		o.log.Warn("load failed",
			zap.Uint64("generation", gen),
			zap.String("query", q.Key()),
			zap.String("message", message),
			zap.Error(err),
		)
		return true
	}

	metrics.ViewFetches.WithLabelValues(o.name, "applied").Inc()
	return true
}
