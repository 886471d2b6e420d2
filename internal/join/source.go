package join

import (
	"context"
	"reflect"
	"slices"

	"github.com/roach88/rendezvous/internal/stream"
)

// Input is a pattern member: a typed source handle with its element type
// erased. *Source[T] is the only implementation.
type Input interface {
	identity() any
	label() string
	observe(c *coordinator, name string) joinObserver
}

// Source is a typed handle on a push source taking part in join patterns.
//
// Within one coordinator, handles with the same identity share one
// subscription and one queue. The identity is the observable itself when its
// dynamic value is comparable, otherwise the handle: two From calls on the
// same function-backed observable, or on a struct wrapping one, are two
// distinct sources.
type Source[T any] struct {
	obs  stream.Observable[T]
	name string
	key  any
}

// From wraps an observable for use in patterns.
func From[T any](obs stream.Observable[T]) *Source[T] {
	return Named("", obs)
}

// Named wraps an observable and gives it a name used in logs and traces.
// Unnamed sources are labelled source-1, source-2, ... in first-reference
// order within each coordinator.
func Named[T any](name string, obs stream.Observable[T]) *Source[T] {
	s := &Source[T]{obs: obs, name: name}
	if obs != nil && reflect.ValueOf(obs).Comparable() {
		s.key = obs
	} else {
		s.key = s
	}
	return s
}

// Name returns the configured name, possibly empty.
func (s *Source[T]) Name() string {
	return s.name
}

func (s *Source[T]) identity() any { return s.key }

func (s *Source[T]) label() string { return s.name }

func (s *Source[T]) observe(c *coordinator, name string) joinObserver {
	return &sourceObserver[T]{coord: c, name: name, source: s.obs}
}

// joinObserver is the element-type-erased view of a sourceObserver used by
// active plans and the coordinator. Every method except subscribe must be
// called inside the coordinator's gate.
type joinObserver interface {
	sourceName() string
	subscribe()
	queueLen() int
	headKind() Kind
	take() any
	addActivePlan(p *activePlan)
	removeActivePlan(p *activePlan)
	activePlanCount() int
	dispose()
	isDisposed() bool
}

// sourceObserver owns the subscription to one source, buffers its events and
// drives matching of every plan registered with it.
type sourceObserver[T any] struct {
	coord  *coordinator
	name   string
	source stream.Observable[T]

	queue    queue[T]
	plans    []*activePlan
	sub      stream.Subscription
	disposed bool
}

var _ stream.Observer[int] = (*sourceObserver[int])(nil)

// OnNext is called by the source, from any goroutine.
func (o *sourceObserver[T]) OnNext(v T) {
	o.deliver(Next(v))
}

// OnError is called by the source, from any goroutine.
func (o *sourceObserver[T]) OnError(err error) {
	o.deliver(ErrorNotification[T](err))
}

// OnCompleted is called by the source, from any goroutine.
func (o *sourceObserver[T]) OnCompleted() {
	o.deliver(Completed[T]())
}

func (o *sourceObserver[T]) deliver(n Notification[T]) {
	release, err := o.coord.gate.Acquire(o.coord.ctx)
	if err != nil {
		// Coordinator context is done: the subscription is going away.
		return
	}
	defer release()
	o.onEvent(n)
}

// onEvent runs inside the gate.
func (o *sourceObserver[T]) onEvent(n Notification[T]) {
	if o.disposed {
		return
	}

	if n.Kind == KindError {
		o.coord.fail(newSourceError(o.coord.id, o.name, n.Err))
		return
	}

	o.queue.push(n)

	ev := TraceEvent{Kind: EventArrival, Source: o.name, Notification: n.Kind.String()}
	if n.Kind == KindNext {
		ev.Values = []any{n.Value}
	}
	o.coord.record(ev)

	// A plan may retire (and unregister itself) while we iterate.
	for _, p := range slices.Clone(o.plans) {
		p.match()
	}
}

func (o *sourceObserver[T]) subscribe() {
	sub := o.source.Subscribe(o)

	release, _ := o.coord.gate.Acquire(context.Background())
	defer release()

	// Synchronous sources may have driven us to disposal before Subscribe
	// returned the handle.
	if o.disposed {
		sub.Dispose()
		return
	}
	o.sub = sub
}

func (o *sourceObserver[T]) sourceName() string { return o.name }

func (o *sourceObserver[T]) queueLen() int { return o.queue.len() }

func (o *sourceObserver[T]) headKind() Kind {
	n, ok := o.queue.head()
	if !ok {
		return 0
	}
	return n.Kind
}

func (o *sourceObserver[T]) take() any {
	return o.queue.pop().Value
}

func (o *sourceObserver[T]) addActivePlan(p *activePlan) {
	if slices.Contains(o.plans, p) {
		return
	}
	o.plans = append(o.plans, p)
}

// removeActivePlan unregisters p and disposes the observer when no plan is
// left.
func (o *sourceObserver[T]) removeActivePlan(p *activePlan) {
	o.plans = slices.DeleteFunc(o.plans, func(q *activePlan) bool { return q == p })
	if len(o.plans) == 0 {
		o.dispose()
	}
}

func (o *sourceObserver[T]) activePlanCount() int { return len(o.plans) }

func (o *sourceObserver[T]) dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	o.queue.clear()
	if o.sub != nil {
		o.sub.Dispose()
	}
	o.coord.record(TraceEvent{Kind: EventDisposed, Source: o.name})
	o.coord.logger.Debug("source disposed", "coordinator", o.coord.id, "source", o.name)
}

func (o *sourceObserver[T]) isDisposed() bool { return o.disposed }
