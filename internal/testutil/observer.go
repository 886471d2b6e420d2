package testutil

import (
	"slices"
	"sync"

	"github.com/roach88/rendezvous/internal/stream"
)

// Collector is a downstream observer that records what it receives.
//
// Done is closed on the first terminal notification. Safe for concurrent use.
type Collector[T any] struct {
	mu        sync.Mutex
	values    []T
	err       error
	completed bool
	terminals int

	done chan struct{}
	once sync.Once
}

var _ stream.Observer[int] = (*Collector[int])(nil)

// NewCollector creates an empty collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{done: make(chan struct{})}
}

// OnNext records v.
func (c *Collector[T]) OnNext(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

// OnError records err as the terminal error.
func (c *Collector[T]) OnError(err error) {
	c.mu.Lock()
	if c.terminals == 0 {
		c.err = err
	}
	c.terminals++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// OnCompleted records completion.
func (c *Collector[T]) OnCompleted() {
	c.mu.Lock()
	if c.terminals == 0 {
		c.completed = true
	}
	c.terminals++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// Values returns a copy of the values received so far.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.values)
}

// Err returns the terminal error, if any.
func (c *Collector[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Completed reports whether OnCompleted arrived first.
func (c *Collector[T]) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Terminals returns how many terminal notifications arrived. Anything above
// one is a protocol violation.
func (c *Collector[T]) Terminals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminals
}

// Done is closed on the first terminal notification.
func (c *Collector[T]) Done() <-chan struct{} {
	return c.done
}
