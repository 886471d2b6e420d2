package join

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rendezvous/internal/stream"
)

// collector is a downstream observer that records everything it receives.
type collector[T any] struct {
	mu        sync.Mutex
	values    []T
	errs      []error
	completed int
	done      chan struct{}
	once      sync.Once
}

func newCollector[T any]() *collector[T] {
	return &collector[T]{done: make(chan struct{})}
}

func (c *collector[T]) OnNext(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *collector[T]) OnError(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *collector[T]) OnCompleted() {
	c.mu.Lock()
	c.completed++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.values...)
}

func (c *collector[T]) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

func (c *collector[T]) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// countingSource counts subscriptions and disposals of the wrapped source.
type countingSource[T any] struct {
	inner      stream.Observable[T]
	subscribes atomic.Int32
	disposes   atomic.Int32
}

func newCountingSource[T any](inner stream.Observable[T]) *countingSource[T] {
	return &countingSource[T]{inner: inner}
}

func (s *countingSource[T]) Subscribe(o stream.Observer[T]) stream.Subscription {
	s.subscribes.Add(1)
	sub := s.inner.Subscribe(o)
	return stream.NewDisposable(func() {
		s.disposes.Add(1)
		sub.Dispose()
	})
}

func sum(args []any) (int, error) {
	total := 0
	for _, a := range args {
		total += a.(int)
	}
	return total, nil
}

func startJoin[R any](t *testing.T, down stream.Observer[R], plans []*Plan[R], opts ...Option) *Coordinator {
	t.Helper()
	opts = append([]Option{WithIDGenerator(NewFixedGenerator("coord-1", "coord-2", "coord-3"))}, opts...)
	h, err := Join(context.Background(), down, plans, opts...)
	require.NoError(t, err)
	t.Cleanup(h.Dispose)
	return h
}
