// Package gate provides the mutual-exclusion primitive that serialises every
// state transition belonging to one join coordinator.
//
// A Gate is context-aware and not bound to the goroutine that acquired it: the
// Release token returned by Acquire may be called from any goroutine, after
// the acquiring frame has returned. It is also re-entrant for its current
// holder, so a callback that synchronously re-enters the gate on the same
// goroutine proceeds instead of deadlocking.
package gate

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	"golang.org/x/sync/semaphore"
)

// Release gives back one level of acquisition. Calling it more than once is a
// no-op.
type Release func()

// Gate is an async-aware re-entrant mutex.
type Gate struct {
	sem *semaphore.Weighted

	// owner is the goroutine id of the current holder, 0 when free.
	owner atomic.Int64
	// depth is only touched by the holder.
	depth int
}

// New returns an unlocked gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is held by the caller or ctx is done.
// If the calling goroutine already holds the gate, Acquire returns at once and
// the returned Release only unwinds that nested level.
func (g *Gate) Acquire(ctx context.Context) (Release, error) {
	gid := goid.Get()

	if g.owner.Load() == gid {
		g.depth++
		return g.releaser(), nil
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	g.owner.Store(gid)
	g.depth = 1
	return g.releaser(), nil
}

// TryAcquire acquires the gate without blocking. It reports false if another
// goroutine holds it.
func (g *Gate) TryAcquire() (Release, bool) {
	gid := goid.Get()

	if g.owner.Load() == gid {
		g.depth++
		return g.releaser(), true
	}
	if !g.sem.TryAcquire(1) {
		return nil, false
	}
	g.owner.Store(gid)
	g.depth = 1
	return g.releaser(), true
}

// Do runs fn while holding the gate.
func (g *Gate) Do(ctx context.Context, fn func()) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	fn()
	return nil
}

// Held reports whether the calling goroutine currently holds the gate.
func (g *Gate) Held() bool {
	return g.owner.Load() == goid.Get()
}

func (g *Gate) releaser() Release {
	var once sync.Once
	return func() {
		once.Do(g.release)
	}
}

func (g *Gate) release() {
	g.depth--
	if g.depth > 0 {
		return
	}
	g.owner.Store(0)
	g.sem.Release(1)
}
