package stream

import "sync"

// Observer receives the three kinds of push events a source can produce.
// After OnError or OnCompleted no further calls are made.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnCompleted()
}

// Observable is a push source.
type Observable[T any] interface {
	Subscribe(observer Observer[T]) Subscription
}

// Subscription cancels delivery to the observer it was returned for.
// Dispose is idempotent.
type Subscription interface {
	Dispose()
}

// ObservableFunc adapts a plain function to the Observable interface.
type ObservableFunc[T any] func(observer Observer[T]) Subscription

// Subscribe calls f(observer).
func (f ObservableFunc[T]) Subscribe(observer Observer[T]) Subscription {
	return f(observer)
}

// ObserverFuncs builds an Observer from optional callbacks. Nil callbacks are
// ignored.
type ObserverFuncs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

func (o ObserverFuncs[T]) OnNext(value T) {
	if o.Next != nil {
		o.Next(value)
	}
}

func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFuncs[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}

// Disposable runs a cleanup function at most once.
type Disposable struct {
	once sync.Once
	fn   func()
}

// NewDisposable wraps fn so that Dispose calls it exactly once.
// A nil fn yields a no-op subscription.
func NewDisposable(fn func()) *Disposable {
	return &Disposable{fn: fn}
}

// Dispose runs the cleanup function the first time it is called.
func (d *Disposable) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// Composite disposes a set of subscriptions together.
type Composite []Subscription

// Dispose disposes every member in order.
func (c Composite) Dispose() {
	for _, s := range c {
		if s != nil {
			s.Dispose()
		}
	}
}
