package stream

import (
	"context"
	"sync/atomic"
)

// FromSlice returns a cold source that, on every Subscribe, synchronously
// pushes values in order and then terminates: with OnError(terminal) when
// terminal is non-nil, OnCompleted otherwise.
//
// Disposing the subscription from inside a callback stops the emission.
func FromSlice[T any](values []T, terminal error) Observable[T] {
	return ObservableFunc[T](func(observer Observer[T]) Subscription {
		var disposed atomic.Bool
		sub := NewDisposable(func() { disposed.Store(true) })

		for _, v := range values {
			if disposed.Load() {
				return sub
			}
			observer.OnNext(v)
		}
		if disposed.Load() {
			return sub
		}
		if terminal != nil {
			observer.OnError(terminal)
		} else {
			observer.OnCompleted()
		}
		return sub
	})
}

// Just is FromSlice(values, nil).
func Just[T any](values ...T) Observable[T] {
	return FromSlice(values, nil)
}

// Empty completes immediately.
func Empty[T any]() Observable[T] {
	return FromSlice[T](nil, nil)
}

// Fail terminates immediately with err.
func Fail[T any](err error) Observable[T] {
	return FromSlice[T](nil, err)
}

// Never produces no events at all.
func Never[T any]() Observable[T] {
	return ObservableFunc[T](func(Observer[T]) Subscription {
		return NewDisposable(nil)
	})
}

// FromChannel bridges a Go channel to a push source. Each Subscribe starts a
// goroutine draining in; a closed channel completes the observer, a cancelled
// ctx fails it with ctx.Err(). Disposing stops the goroutine without emitting
// anything further.
//
// Multiple subscribers compete for the channel's values.
func FromChannel[T any](ctx context.Context, in <-chan T) Observable[T] {
	return ObservableFunc[T](func(observer Observer[T]) Subscription {
		subCtx, cancel := context.WithCancel(ctx)

		go func() {
			defer cancel()
			for {
				select {
				case <-subCtx.Done():
					// Parent cancellation is an error, our own Dispose is not.
					if ctx.Err() != nil {
						observer.OnError(ctx.Err())
					}
					return
				case v, ok := <-in:
					if !ok {
						observer.OnCompleted()
						return
					}
					if subCtx.Err() != nil {
						return
					}
					observer.OnNext(v)
				}
			}
		}()

		return NewDisposable(cancel)
	})
}
