package listview

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of a view's state.
type Snapshot[T any] struct {
	Records     []T                   `json:"records"`
	Total       int                   `json:"total"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"pageSize"`
	Filter      Filter                `json:"filter"`
	Loading     bool                  `json:"loading"`
	Error       string                `json:"error,omitempty"`
	Success     string                `json:"success,omitempty"`
	InFlight    map[string]ActionKind `json:"inFlight"`
	AutoRefresh bool                  `json:"autoRefresh"`
	Generation  uint64                `json:"generation"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// HasNext reports whether a page follows the current one.
func (s Snapshot[T]) HasNext() bool {
	return s.PageSize > 0 && s.Page*s.PageSize < s.Total
}

// HasPrev reports whether a page precedes the current one.
func (s Snapshot[T]) HasPrev() bool {
	return s.Page > 1
}

// Pages is the number of pages for the current total, at least 1.
func (s Snapshot[T]) Pages() int {
	if s.PageSize <= 0 || s.Total <= 0 {
		return 1
	}
	return (s.Total + s.PageSize - 1) / s.PageSize
}

// Busy reports whether the record with id has an action in flight.
func (s Snapshot[T]) Busy(id string) bool {
	_, ok := s.InFlight[id]
	return ok
}

func (s Snapshot[T]) clone() Snapshot[T] {
	out := s
	out.Records = append([]T(nil), s.Records...)
	out.InFlight = make(map[string]ActionKind, len(s.InFlight))
	for id, kind := range s.InFlight {
		out.InFlight[id] = kind
	}
	return out
}

type listener[T any] struct {
	id uint64
	fn func(Snapshot[T])
}

// Store owns one view's state. Every mutation notifies subscribers with a fresh snapshot.
// revision counts filter and page changes, so a load can tell whether the query it ran
// still describes the store.
type Store[T any] struct {
	mu        sync.RWMutex
	state     Snapshot[T]
	revision  uint64
	listeners []listener[T]
	nextID    uint64
	now       func() time.Time
}

// NewStore returns an empty store on page 1.
func NewStore[T any](pageSize int) *Store[T] {
	return &Store[T]{
		state: Snapshot[T]{
			Page:     1,
			PageSize: pageSize,
			InFlight: map[string]ActionKind{},
		},
		now: time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn for state changes and returns a function removing it.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[T]) subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

// update applies fn under the lock and publishes the result. fn returning false skips
// publication.
func (s *Store[T]) update(fn func(*Snapshot[T]) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.state.clone()
	listeners := append([]listener[T](nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snap)
	}
	return true
}

// query builds the request for the current filter and page along with the revision
// it reflects.
func (s *Store[T]) query() (Query, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildQuery(s.state.Filter, s.state.Page-1, s.state.PageSize), s.revision
}

// currentRevision returns the filter and page revision.
func (s *Store[T]) currentRevision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// begin marks a load of generation gen as started.
func (s *Store[T]) begin(gen uint64) {
	s.update(func(st *Snapshot[T]) bool {
		if gen > st.Generation {
			st.Generation = gen
		}
		st.Loading = true
		st.Error = ""
		return true
	})
}

// settle applies the outcome of load gen, which ran against revision rev. It returns
// false, changing nothing, when a newer load has begun since or the filter or page
// moved on after the query was built.
func (s *Store[T]) settle(gen, rev uint64, records []T, total int, errMessage string) bool {
	return s.update(func(st *Snapshot[T]) bool {
		if st.Generation != gen || s.revision != rev {
			return false
		}
		st.Loading = false
		if errMessage != "" {
			st.Error = errMessage
			return true
		}
		st.Records = append([]T(nil), records...)
		st.Total = total
		st.Error = ""
		st.UpdatedAt = s.now()
		return true
	})
}

// abandon advances to gen without a fetch, so any load still running is discarded,
// and clears the loading flag. Records are kept.
func (s *Store[T]) abandon(gen uint64) {
	s.update(func(st *Snapshot[T]) bool {
		if gen > st.Generation {
			st.Generation = gen
		}
		st.Loading = false
		return true
	})
}

// setFilter stores f and reports whether it differs from the current filter. A change
// resets the page cursor to 1.
func (s *Store[T]) setFilter(f Filter) bool {
	changed := false
	s.update(func(st *Snapshot[T]) bool {
		changed = s.navigate(st, f, 0)
		return changed
	})
	return changed
}

func (s *Store[T]) setPage(page int) {
	s.update(func(st *Snapshot[T]) bool {
		return s.navigate(st, st.Filter, max(page, 1))
	})
}

// setView applies f and then page in one step. A page below 1 keeps the page the
// filter leaves behind.
func (s *Store[T]) setView(f Filter, page int) {
	s.update(func(st *Snapshot[T]) bool {
		return s.navigate(st, f, page)
	})
}

// navigate must run under s.mu. It reports whether filter or page changed.
func (s *Store[T]) navigate(st *Snapshot[T], f Filter, page int) bool {
	changed := false
	if st.Filter != f {
		st.Filter = f
		st.Page = 1
		changed = true
	}
	if page >= 1 && st.Page != page {
		st.Page = page
		changed = true
	}
	if changed {
		s.revision++
	}
	return changed
}

// Reset drops records, filter and banners and returns to page 1. Generation and
// subscribers are kept, and a load still running is discarded when it settles.
func (s *Store[T]) Reset() {
	s.update(func(st *Snapshot[T]) bool {
		*st = Snapshot[T]{
			Page:       1,
			PageSize:   st.PageSize,
			InFlight:   map[string]ActionKind{},
			Generation: st.Generation,
		}
		s.revision++
		return true
	})
}

func (s *Store[T]) setAutoRefresh(on bool) {
	s.update(func(st *Snapshot[T]) bool {
		if st.AutoRefresh == on {
			return false
		}
		st.AutoRefresh = on
		return true
	})
}

func (s *Store[T]) dismiss() {
	s.update(func(st *Snapshot[T]) bool {
		if st.Error == "" && st.Success == "" {
			return false
		}
		st.Error = ""
		st.Success = ""
		return true
	})
}

func (s *Store[T]) fail(message string) {
	s.update(func(st *Snapshot[T]) bool {
		st.Error = message
		st.Success = ""
		return true
	})
}

// beginAction marks id as busy with kind. It returns false when id is already busy.
func (s *Store[T]) beginAction(id string, kind ActionKind) bool {
	ok := false
	s.update(func(st *Snapshot[T]) bool {
		if _, busy := st.InFlight[id]; busy {
			return false
		}
		st.InFlight[id] = kind
		ok = true
		return true
	})
	return ok
}

// endAction clears the busy marker of id and records the banner for the outcome.
func (s *Store[T]) endAction(id, success, failure string) {
	s.update(func(st *Snapshot[T]) bool {
		delete(st.InFlight, id)
		switch {
		case failure != "":
			st.Error = failure
			st.Success = ""
		case success != "":
			st.Success = success
			st.Error = ""
		}
		return true
	})
}
