package resilience

import (
	"context"
	"sync"
)

// Group collapses concurrent calls that share a key into one execution.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*flight[T]
}

type flight[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Do runs fn once per in-flight key. shared reports whether the result
// came from another caller's execution.
func (g *Group[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	if f, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight[T]{done: make(chan struct{})}
	g.calls[key] = f
	g.mu.Unlock()

	defer g.finish(key, f)
	f.val, f.err = fn()
	return f.val, f.err, false
}

// DoContext is Do for work that takes a context. fn runs detached from the
// cancellation of whichever caller started it; each caller stops waiting
// when its own ctx ends, and fn's context is cancelled once nobody waits.
func (g *Group[T]) DoContext(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	f, shared := g.calls[key]
	if !shared {
		callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight[T]{done: make(chan struct{}), cancel: cancel}
		g.calls[key] = f
		go func() {
			defer cancel()
			defer g.finish(key, f)
			f.val, f.err = fn(callCtx)
		}()
	}
	f.waiters++
	g.mu.Unlock()

	select {
	case <-f.done:
		return f.val, f.err, shared
	case <-ctx.Done():
		g.leave(key, f)
		var zero T
		return zero, ctx.Err(), shared
	}
}

func (g *Group[T]) leave(key string, f *flight[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f.waiters--
	if f.waiters > 0 || f.cancel == nil {
		return
	}
	// Abandoned: later callers must start a fresh execution.
	if g.calls[key] == f {
		delete(g.calls, key)
	}
	f.cancel()
}

func (g *Group[T]) finish(key string, f *flight[T]) {
	g.mu.Lock()
	if g.calls[key] == f {
		delete(g.calls, key)
	}
	g.mu.Unlock()
	close(f.done)
}

// Waiters reports how many callers wait on the in-flight call for key.
func (g *Group[T]) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.calls[key]; ok {
		return f.waiters
	}
	return 0
}
