package resilience

import (
	"errors"
	"sync"
)

var errFlightAborted = errors.New("singleflight call aborted")

// SingleFlight coalesces concurrent calls for the same key into one.
type SingleFlight[V any] struct {
	mu    sync.Mutex
	calls map[string]*flight[V]
}

type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Do runs fn once for all concurrent callers of key. shared reports whether the
// result came from another caller's run. Waiters of a run that panicked get an error.
func (g *SingleFlight[V]) Do(key string, fn func() (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if f, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}
	if g.calls == nil {
		g.calls = make(map[string]*flight[V])
	}
	f := &flight[V]{done: make(chan struct{}), err: errFlightAborted}
	g.calls[key] = f
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.calls[key] == f {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		close(f.done)
	}()

	f.val, f.err = fn()
	return f.val, f.err, false
}

// Forget detaches the in-flight call for key. Callers already waiting still get
// its result; later callers start a new run.
func (g *SingleFlight[V]) Forget(key string) {
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
}
