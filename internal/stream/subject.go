package stream

import (
	"slices"
	"sync"
)

// Subject is a hot source that multicasts every event to the observers
// subscribed at the time of the event. It is safe for concurrent use.
//
// Once terminated (OnError or OnCompleted) further events are dropped, and a
// late subscriber immediately receives the terminal event.
type Subject[T any] struct {
	mu        sync.Mutex
	observers map[uint64]Observer[T]
	nextID    uint64
	done      bool
	err       error
}

// NewSubject creates a Subject with no observers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: make(map[uint64]Observer[T])}
}

// Subscribe registers an observer until the returned subscription is disposed.
func (s *Subject[T]) Subscribe(observer Observer[T]) Subscription {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			observer.OnError(err)
		} else {
			observer.OnCompleted()
		}
		return NewDisposable(nil)
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	s.mu.Unlock()

	return NewDisposable(func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	})
}

// OnNext pushes value to every current observer.
func (s *Subject[T]) OnNext(value T) {
	for _, o := range s.snapshot(false, nil) {
		o.OnNext(value)
	}
}

// OnError terminates the subject with err.
func (s *Subject[T]) OnError(err error) {
	for _, o := range s.snapshot(true, err) {
		o.OnError(err)
	}
}

// OnCompleted terminates the subject normally.
func (s *Subject[T]) OnCompleted() {
	for _, o := range s.snapshot(true, nil) {
		o.OnCompleted()
	}
}

// HasObservers reports whether at least one observer is subscribed.
func (s *Subject[T]) HasObservers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

// snapshot copies the observer set in subscription order. When terminate is
// set the subject is marked done and the set is cleared. Returns nil if the
// subject already terminated.
func (s *Subject[T]) snapshot(terminate bool, err error) []Observer[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}

	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Observer[T], len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}

	if terminate {
		s.done = true
		s.err = err
		clear(s.observers)
	}
	return out
}
