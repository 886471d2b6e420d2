package harness

import (
	"context"
	"fmt"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/stream"
)

// Bind turns a declared join into executable plans over the given sources.
//
// sources must hold one observable per declared source name. Each declared
// source becomes one join.Source, so plans naming the same source share its
// subscription and queue. Reactions evaluate the declared op with ir.Apply.
func Bind(spec ir.JoinSpec, sources map[string]stream.Observable[ir.IRValue]) ([]*join.Plan[ir.IRValue], error) {
	handles := make(map[string]*join.Source[ir.IRValue], len(spec.Sources))
	for _, decl := range spec.Sources {
		obs, ok := sources[decl.Name]
		if !ok || obs == nil {
			return nil, fmt.Errorf("source %s: no observable bound", decl.Name)
		}
		handles[decl.Name] = join.Named(decl.Name, obs)
	}

	plans := make([]*join.Plan[ir.IRValue], 0, len(spec.Plans))
	for _, decl := range spec.Plans {
		var pattern join.Pattern
		for _, name := range decl.Pattern {
			h, ok := handles[name]
			if !ok {
				return nil, fmt.Errorf("plan %s: unknown source %s", decl.ID, name)
			}
			pattern = pattern.And(h)
		}

		reaction := decl.Reaction
		var plan *join.Plan[ir.IRValue]
		if reaction.Async {
			plan = join.ThenAsync(pattern, func(_ context.Context, args []any) (ir.IRValue, error) {
				return apply(reaction, args)
			})
		} else {
			plan = join.Then(pattern, func(args []any) (ir.IRValue, error) {
				return apply(reaction, args)
			})
		}
		plan = plan.Named(decl.ID)

		if err := plan.Err(); err != nil {
			return nil, fmt.Errorf("plan %s: %w", decl.ID, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func apply(reaction ir.ReactionDecl, args []any) (ir.IRValue, error) {
	values := make([]ir.IRValue, len(args))
	for i, a := range args {
		v, ok := a.(ir.IRValue)
		if !ok {
			return nil, fmt.Errorf("operand %d: %w: got %T", i, ir.ErrOperandType, a)
		}
		values[i] = v
	}
	return ir.Apply(reaction, values)
}
