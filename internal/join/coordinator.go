package join

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/rendezvous/internal/gate"
)

// State is the lifecycle state of a coordinator.
type State int

const (
	// StateActive means sources are subscribed and plans may fire.
	StateActive State = iota + 1
	// StateFailed means a source or reaction failed; OnError was delivered.
	StateFailed
	// StateCompleted means every plan retired; OnCompleted was delivered.
	StateCompleted
	// StateCancelled means the coordinator was disposed from outside.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// coordinator owns one subscription's worth of shared state: the gate, the
// source dedup map and the active plans.
//
// INVARIANTS:
//   - at most one source observer per source identity
//   - every field below gate is only touched while holding gate
//   - the downstream observer receives at most one terminal call, and nothing
//     after it
type coordinator struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
	gate      *gate.Gate
	logger    *slog.Logger
	recorder  Recorder
	clock     Sequencer
	keepAlive bool

	observers map[any]joinObserver
	order     []joinObserver // first-reference order
	plans     []*activePlan  // declaration order, retired plans removed
	inflight  int            // async reactions not yet delivered
	state     State

	onError     func(error)
	onCompleted func()
}

func newCoordinator(parent context.Context, cfg config) *coordinator {
	ctx, cancel := context.WithCancel(parent)

	clock := cfg.clock
	if clock == nil {
		clock = NewClock()
	}

	id := cfg.ids.Generate()
	return &coordinator{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		gate:      gate.New(),
		logger:    cfg.logger,
		recorder:  cfg.recorder,
		clock:     clock,
		keepAlive: cfg.keepAlive,
		observers: make(map[any]joinObserver),
		state:     StateActive,
	}
}

// resolve returns the observer for in's source, creating it on first
// reference.
func (c *coordinator) resolve(in Input) joinObserver {
	key := in.identity()
	if o, ok := c.observers[key]; ok {
		return o
	}

	name := in.label()
	if name == "" {
		name = fmt.Sprintf("source-%d", len(c.order)+1)
	}
	o := in.observe(c, name)
	c.observers[key] = o
	c.order = append(c.order, o)
	return o
}

// subscribeAll subscribes every distinct source exactly once, in
// first-reference order. Runs outside the gate: sources may push
// synchronously from Subscribe.
func (c *coordinator) subscribeAll() {
	for _, o := range c.snapshotObservers() {
		release, err := c.gate.Acquire(context.Background())
		if err != nil {
			return
		}
		skip := c.state != StateActive || o.isDisposed()
		release()
		if skip {
			continue
		}
		o.subscribe()
	}
}

func (c *coordinator) snapshotObservers() []joinObserver {
	release, _ := c.gate.Acquire(context.Background())
	defer release()
	return slices.Clone(c.order)
}

func (c *coordinator) record(ev TraceEvent) {
	ev.Seq = c.clock.Next()
	ev.CoordinatorID = c.id
	c.recorder.Record(ev)
}

// fail terminates the coordinator with err. Errors are global: every plan
// stops, whether or not it depends on the failing source.
func (c *coordinator) fail(err error) {
	if c.state != StateActive {
		return
	}
	c.state = StateFailed

	c.record(TraceEvent{Kind: EventFailed, Error: err.Error()})
	c.logger.Warn("join failed", "coordinator", c.id, "error", err)

	c.teardown()
	c.onError(err)
}

// deactivate drops a retired plan and completes the coordinator when it was
// the last one.
func (c *coordinator) deactivate(p *activePlan) {
	c.plans = slices.DeleteFunc(c.plans, func(q *activePlan) bool { return q == p })

	c.record(TraceEvent{Kind: EventRetired, Plan: p.id})
	c.logger.Debug("plan retired", "coordinator", c.id, "plan", p.id, "remaining", len(c.plans))

	c.maybeComplete()
}

func (c *coordinator) maybeComplete() {
	if c.state != StateActive || len(c.plans) > 0 || c.inflight > 0 || c.keepAlive {
		return
	}
	c.state = StateCompleted

	c.record(TraceEvent{Kind: EventCompleted})
	c.logger.Debug("join completed", "coordinator", c.id)

	c.teardown()
	c.onCompleted()
}

// dispose cancels the coordinator from outside. Nothing is delivered.
func (c *coordinator) dispose() {
	release, _ := c.gate.Acquire(context.Background())
	defer release()

	if c.state != StateActive {
		return
	}
	c.state = StateCancelled

	c.record(TraceEvent{Kind: EventCancelled})
	c.logger.Debug("join cancelled", "coordinator", c.id)

	c.teardown()
}

// teardown retires every plan without notification and disposes every
// source. Disposal is idempotent, so sources already torn down by their last
// plan retiring are skipped.
func (c *coordinator) teardown() {
	for _, p := range c.plans {
		p.retired = true
	}
	c.plans = nil

	for _, o := range c.order {
		o.dispose()
	}

	if c.stopWatch != nil {
		c.stopWatch()
	}
	c.cancel()
}
