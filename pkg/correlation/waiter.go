package correlation

import (
	"context"
	"sync"
)

// Waiter is the single-shot result slot for one outstanding identity.
// It is completed exactly once; later completions are ignored.
type Waiter struct {
	id   string
	ch   chan struct{} // closed when the result is set
	once sync.Once

	mu      sync.Mutex
	payload []byte
	err     error
}

func newWaiter(id string) *Waiter {
	return &Waiter{id: id, ch: make(chan struct{})}
}

func (w *Waiter) ID() string { return w.id }

// complete sets the result once and reports whether this call won.
func (w *Waiter) complete(payload []byte, err error) bool {
	won := false
	w.once.Do(func() {
		w.mu.Lock()
		w.payload, w.err = payload, err
		w.mu.Unlock()
		won = true
		close(w.ch)
	})
	return won
}

// Done is closed once the waiter has a result.
func (w *Waiter) Done() <-chan struct{} { return w.ch }

// Wait blocks until the waiter completes or ctx is done. A ctx error
// does not touch the registry; callers that give up should Cancel.
func (w *Waiter) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-w.ch:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.payload, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while pending.
func (w *Waiter) Result() (payload []byte, err error, ok bool) {
	select {
	case <-w.ch:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.payload, w.err, true
	default:
		return nil, nil, false
	}
}
