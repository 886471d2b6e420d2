package join

import (
	"context"
	"fmt"

	"github.com/roach88/rendezvous/internal/stream"
)

// Reaction projects the values consumed by one match, in pattern order, to a
// result. A returned error terminates the whole join.
type Reaction[R any] func(args []any) (R, error)

// AsyncReaction is a reaction that may block. It runs on its own goroutine
// without holding the coordinator's gate; ctx is cancelled when the
// coordinator terminates.
type AsyncReaction[R any] func(ctx context.Context, args []any) (R, error)

// Plan is a pattern plus a reaction. Plans are immutable descriptions: the
// same plan may take part in any number of joins, and every join activates
// it afresh.
type Plan[R any] struct {
	id      string
	pattern Pattern
	react   Reaction[R]
	async   AsyncReaction[R]
	err     error
}

// Then builds a plan that runs fn synchronously on every match.
func Then[R any](p Pattern, fn Reaction[R]) *Plan[R] {
	plan := &Plan[R]{pattern: p, react: fn}
	if fn == nil {
		plan.err = ErrNilReaction
	} else {
		plan.err = p.validate()
	}
	return plan
}

// ThenAsync builds a plan whose reaction runs off the gate.
func ThenAsync[R any](p Pattern, fn AsyncReaction[R]) *Plan[R] {
	plan := &Plan[R]{pattern: p, async: fn}
	if fn == nil {
		plan.err = ErrNilReaction
	} else {
		plan.err = p.validate()
	}
	return plan
}

// Then1 builds a plan over a typed one-source pattern.
func Then1[A, R any](p Pattern1[A], fn func(A) (R, error)) *Plan[R] {
	if fn == nil {
		return Then[R](p.Pattern, nil)
	}
	return checkArity(Then(p.Pattern, func(args []any) (R, error) {
		return fn(arg[A](args[0]))
	}), 1)
}

// Then2 builds a plan over a typed two-source pattern.
func Then2[A, B, R any](p Pattern2[A, B], fn func(A, B) (R, error)) *Plan[R] {
	if fn == nil {
		return Then[R](p.Pattern, nil)
	}
	return checkArity(Then(p.Pattern, func(args []any) (R, error) {
		return fn(arg[A](args[0]), arg[B](args[1]))
	}), 2)
}

// Then3 builds a plan over a typed three-source pattern.
func Then3[A, B, C, R any](p Pattern3[A, B, C], fn func(A, B, C) (R, error)) *Plan[R] {
	if fn == nil {
		return Then[R](p.Pattern, nil)
	}
	return checkArity(Then(p.Pattern, func(args []any) (R, error) {
		return fn(arg[A](args[0]), arg[B](args[1]), arg[C](args[2]))
	}), 3)
}

// Then4 builds a plan over a typed four-source pattern.
func Then4[A, B, C, D, R any](p Pattern4[A, B, C, D], fn func(A, B, C, D) (R, error)) *Plan[R] {
	if fn == nil {
		return Then[R](p.Pattern, nil)
	}
	return checkArity(Then(p.Pattern, func(args []any) (R, error) {
		return fn(arg[A](args[0]), arg[B](args[1]), arg[C](args[2]), arg[D](args[3]))
	}), 4)
}

// checkArity rejects a typed plan whose pattern was built with a different
// number of sources than its reaction takes, such as a Pattern2 literal
// holding a one-source pattern.
func checkArity[R any](plan *Plan[R], want int) *Plan[R] {
	if plan.err == nil && plan.pattern.Len() != want {
		plan.err = fmt.Errorf("%w: pattern has %d sources, reaction takes %d", ErrArity, plan.pattern.Len(), want)
	}
	return plan
}

// arg converts a consumed value back to its static type. A nil interface
// value becomes the zero value.
func arg[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Named returns a copy of the plan with an id used in logs, traces and
// errors. Unnamed plans are labelled plan-1, plan-2, ... by declaration
// order.
func (p *Plan[R]) Named(id string) *Plan[R] {
	cp := *p
	cp.id = id
	return &cp
}

// ID returns the configured id, possibly empty.
func (p *Plan[R]) ID() string {
	return p.id
}

// Pattern returns the plan's pattern.
func (p *Plan[R]) Pattern() Pattern {
	return p.pattern
}

// Err reports why the plan cannot be activated, if anything.
func (p *Plan[R]) Err() error {
	return p.err
}

// IsAsync reports whether the reaction runs off the gate.
func (p *Plan[R]) IsAsync() bool {
	return p.async != nil
}

// activate binds the plan to c. Sources are resolved through c's dedup map
// before anything is subscribed; the resulting active plan is registered
// with each of its source observers. Runs inside the gate.
func (p *Plan[R]) activate(c *coordinator, index int, downstream stream.Observer[R]) *activePlan {
	id := p.id
	if id == "" {
		id = fmt.Sprintf("plan-%d", index+1)
	}

	observers := make([]joinObserver, len(p.pattern.inputs))
	for i, in := range p.pattern.inputs {
		observers[i] = c.resolve(in)
	}

	ap := &activePlan{coord: c, id: id, observers: observers}

	deliver := func(result R) {
		c.record(TraceEvent{Kind: EventDelivered, Plan: id, Values: []any{result}})
		downstream.OnNext(result)
	}

	if p.async != nil {
		ap.fire = func(args []any) {
			c.inflight++
			go p.runAsync(c, id, args, deliver)
		}
	} else {
		ap.fire = func(args []any) {
			result, err := invoke(c.id, id, func() (R, error) { return p.react(args) })
			if err != nil {
				c.fail(err)
				return
			}
			deliver(result)
		}
	}

	for _, o := range observers {
		o.addActivePlan(ap)
	}
	return ap
}

// runAsync evaluates the reaction off the gate and re-enters it to deliver.
func (p *Plan[R]) runAsync(c *coordinator, id string, args []any, deliver func(R)) {
	result, err := invoke(c.id, id, func() (R, error) { return p.async(c.ctx, args) })

	release, _ := c.gate.Acquire(context.Background())
	defer release()

	c.inflight--
	if c.state != StateActive {
		c.logger.Debug("dropping async result after termination", "coordinator", c.id, "plan", id)
		return
	}
	if err != nil {
		c.fail(err)
		return
	}
	deliver(result)
	c.maybeComplete()
}

// invoke runs a reaction, turning returned errors and panics into *Error.
func invoke[R any](coordinatorID, planID string, fn func() (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newReactionPanic(coordinatorID, planID, r)
		}
	}()

	result, err = fn()
	if err != nil {
		return result, newReactionError(coordinatorID, planID, err)
	}
	return result, nil
}
