package join

import (
	"context"
	"fmt"

	"github.com/roach88/rendezvous/internal/stream"
)

// Coordinator is the handle on one running join. Disposing it cancels every
// source subscription; it is safe to call from any goroutine, including from
// inside the downstream observer, and any number of times.
type Coordinator struct {
	c *coordinator
}

// Join activates plans against downstream and subscribes their sources.
//
// Plans are activated in order; every distinct source is resolved before any
// is subscribed, then subscribed exactly once in first-reference order.
// Cancelling ctx disposes the coordinator.
//
// Join returns an error, and subscribes nothing, if plans is empty or any
// plan is invalid.
func Join[R any](ctx context.Context, downstream stream.Observer[R], plans []*Plan[R], opts ...Option) (*Coordinator, error) {
	if len(plans) == 0 {
		return nil, ErrNoPlans
	}
	for i, p := range plans {
		if p == nil {
			return nil, fmt.Errorf("plan %d: %w", i+1, ErrNilReaction)
		}
		if p.err != nil {
			return nil, fmt.Errorf("plan %d: %w", i+1, p.err)
		}
	}

	cfg := newConfig(opts)
	c := newCoordinator(ctx, cfg)
	c.onError = downstream.OnError
	c.onCompleted = downstream.OnCompleted

	release, err := c.gate.Acquire(context.Background())
	if err != nil {
		return nil, fmt.Errorf("acquire gate: %w", err)
	}
	for i, p := range plans {
		c.plans = append(c.plans, p.activate(c, i, downstream))
	}
	c.record(TraceEvent{Kind: EventStarted})

	h := &Coordinator{c: c}
	c.stopWatch = context.AfterFunc(ctx, h.Dispose)
	release()

	c.logger.Debug("join started",
		"coordinator", c.id,
		"plans", len(plans),
		"sources", len(c.order),
	)

	c.subscribeAll()
	return h, nil
}

// Combine returns a cold observable over plans: each Subscribe starts a new
// coordinator with a fresh activation of every plan. Invalid plans fail the
// subscriber immediately.
func Combine[R any](plans []*Plan[R], opts ...Option) stream.Observable[R] {
	return stream.ObservableFunc[R](func(observer stream.Observer[R]) stream.Subscription {
		h, err := Join(context.Background(), observer, plans, opts...)
		if err != nil {
			observer.OnError(err)
			return stream.NewDisposable(nil)
		}
		return h
	})
}

// Dispose cancels the join. Idempotent.
func (h *Coordinator) Dispose() {
	h.c.dispose()
}

// ID returns the coordinator id.
func (h *Coordinator) ID() string {
	return h.c.id
}

// State returns the current lifecycle state.
func (h *Coordinator) State() State {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()
	return h.c.state
}

// ActivePlans returns the number of plans that have not retired.
func (h *Coordinator) ActivePlans() int {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()
	return len(h.c.plans)
}

// Pending returns the number of async reactions still running. Their results
// have not been delivered yet.
func (h *Coordinator) Pending() int {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()
	return h.c.inflight
}

// Sources returns the number of distinct sources resolved by the join.
func (h *Coordinator) Sources() int {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()
	return len(h.c.order)
}

// LiveSources returns the number of sources still subscribed.
func (h *Coordinator) LiveSources() int {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()

	n := 0
	for _, o := range h.c.order {
		if !o.isDisposed() {
			n++
		}
	}
	return n
}

// SourceStatus describes one source observer, for diagnostics.
type SourceStatus struct {
	Name        string `json:"name"`
	Queued      int    `json:"queued"`
	ActivePlans int    `json:"active_plans"`
	Disposed    bool   `json:"disposed"`
}

// SourceStatuses reports every source in first-reference order.
func (h *Coordinator) SourceStatuses() []SourceStatus {
	release, _ := h.c.gate.Acquire(context.Background())
	defer release()

	out := make([]SourceStatus, len(h.c.order))
	for i, o := range h.c.order {
		out[i] = SourceStatus{
			Name:        o.sourceName(),
			Queued:      o.queueLen(),
			ActivePlans: o.activePlanCount(),
			Disposed:    o.isDisposed(),
		}
	}
	return out
}
