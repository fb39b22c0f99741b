// Package correlation maps request identities to the callers waiting on
// them. One mutex guards the map; every operation inserts or removes and
// so takes it exclusively.
package correlation

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrCanceled completes a waiter whose entry was cancelled.
	ErrCanceled = errors.New("correlation: request cancelled")
	// ErrSuperseded completes a waiter evicted by a later Register of the same identity.
	ErrSuperseded = errors.New("correlation: superseded by a newer request with the same identity")
)

// Outcome labels how an entry left the registry.
type Outcome string

const (
	OutcomeResolved   Outcome = "resolved"
	OutcomeFailed     Outcome = "failed"
	OutcomeCanceled   Outcome = "canceled"
	OutcomeSuperseded Outcome = "superseded"
)

// Observer is told about entries coming and going. Calls happen outside
// the registry lock.
type Observer interface {
	Registered(id string)
	Completed(id string, o Outcome)
}

type Option func(*Registry)

// WithObserver attaches o; nil is ignored.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.obs = o
		}
	}
}

type Registry struct {
	mu      sync.Mutex
	waiters map[string]*Waiter
	obs     Observer
}

func New(opts ...Option) *Registry {
	r := &Registry{
		waiters: make(map[string]*Waiter),
		obs:     nopObserver{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register installs a fresh waiter for id. A waiter already holding id
// is removed first and completed with ErrSuperseded; it can never
// receive a payload.
func (r *Registry) Register(id string) *Waiter {
	w := newWaiter(id)

	r.mu.Lock()
	old := r.waiters[id]
	r.waiters[id] = w
	r.mu.Unlock()

	if old != nil && old.complete(nil, ErrSuperseded) {
		r.obs.Completed(id, OutcomeSuperseded)
	}
	r.obs.Registered(id)
	return w
}

// Resolve completes id with payload. Unknown ids are a no-op and report false.
func (r *Registry) Resolve(id string, payload []byte) bool {
	return r.finish(id, payload, nil, OutcomeResolved)
}

// Fail completes id with err. Unknown ids are a no-op and report false.
func (r *Registry) Fail(id string, err error) bool {
	if err == nil {
		err = errors.New("correlation: failed without error")
	}
	return r.finish(id, nil, err, OutcomeFailed)
}

// Cancel drops id; a caller still blocked on it observes ErrCanceled.
func (r *Registry) Cancel(id string) bool {
	return r.finish(id, nil, ErrCanceled, OutcomeCanceled)
}

// CancelWaiter drops w only if it still holds its identity. A waiter that
// was already superseded leaves the newer registration untouched.
func (r *Registry) CancelWaiter(w *Waiter) bool {
	id := w.ID()
	r.mu.Lock()
	cur, ok := r.waiters[id]
	ok = ok && cur == w
	if ok {
		delete(r.waiters, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if w.complete(nil, ErrCanceled) {
		r.obs.Completed(id, OutcomeCanceled)
	}
	return true
}

func (r *Registry) finish(id string, payload []byte, err error, o Outcome) bool {
	r.mu.Lock()
	w, ok := r.waiters[id]
	if ok {
		delete(r.waiters, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if w.complete(payload, err) {
		r.obs.Completed(id, o)
	}
	return true
}

// CancelAll drops every entry, e.g. on shutdown. Returns how many were dropped.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	ws := r.waiters
	r.waiters = make(map[string]*Waiter)
	r.mu.Unlock()

	for id, w := range ws {
		if w.complete(nil, ErrCanceled) {
			r.obs.Completed(id, OutcomeCanceled)
		}
	}
	return len(ws)
}

// Len returns the number of outstanding entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

// IDs returns a sorted snapshot of outstanding identities.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.waiters))
	for id := range r.waiters {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

type nopObserver struct{}

func (nopObserver) Registered(string)         {}
func (nopObserver) Completed(string, Outcome) {}
