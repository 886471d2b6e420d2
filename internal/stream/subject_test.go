package stream

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects events for assertions.
type recorder[T any] struct {
	mu        sync.Mutex
	values    []T
	errs      []error
	completed int
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) OnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func TestSubject_Multicast(t *testing.T) {
	s := NewSubject[int]()
	a, b := &recorder[int]{}, &recorder[int]{}

	s.Subscribe(a)
	s.Subscribe(b)

	s.OnNext(1)
	s.OnNext(2)
	s.OnCompleted()

	assert.Equal(t, []int{1, 2}, a.values)
	assert.Equal(t, []int{1, 2}, b.values)
	assert.Equal(t, 1, a.completed)
	assert.Equal(t, 1, b.completed)
}

func TestSubject_DisposeStopsDelivery(t *testing.T) {
	s := NewSubject[int]()
	r := &recorder[int]{}

	sub := s.Subscribe(r)
	s.OnNext(1)
	sub.Dispose()
	sub.Dispose()
	s.OnNext(2)

	assert.Equal(t, []int{1}, r.values)
	assert.False(t, s.HasObservers())
}

func TestSubject_TerminalOnce(t *testing.T) {
	s := NewSubject[string]()
	r := &recorder[string]{}
	s.Subscribe(r)

	boom := errors.New("boom")
	s.OnError(boom)
	s.OnError(errors.New("second"))
	s.OnCompleted()
	s.OnNext("late")

	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], boom)
	assert.Zero(t, r.completed)
	assert.Empty(t, r.values)
}

func TestSubject_LateSubscriberSeesTerminal(t *testing.T) {
	s := NewSubject[int]()
	s.OnCompleted()

	r := &recorder[int]{}
	s.Subscribe(r)
	assert.Equal(t, 1, r.completed)

	f := NewSubject[int]()
	boom := errors.New("boom")
	f.OnError(boom)

	r2 := &recorder[int]{}
	f.Subscribe(r2)
	require.Len(t, r2.errs, 1)
	assert.ErrorIs(t, r2.errs[0], boom)
}

func TestSubject_ConcurrentPush(t *testing.T) {
	s := NewSubject[int]()
	r := &recorder[int]{}
	s.Subscribe(r)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(v int) {
			defer wg.Done()
			s.OnNext(v)
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.values, n)
}
