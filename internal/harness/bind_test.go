package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/stream"
	"github.com/roach88/rendezvous/internal/testutil"
)

func TestBind_PlansShareDeclaredSources(t *testing.T) {
	spec := ir.JoinSpec{
		Name:    "fan",
		Sources: []ir.SourceDecl{{Name: "A"}, {Name: "B"}},
		Plans: []ir.PlanDecl{
			{ID: "both", Pattern: []string{"A", "B"}, Reaction: ir.ReactionDecl{Op: ir.OpTuple}},
			{ID: "only_b", Pattern: []string{"B"}, Reaction: ir.ReactionDecl{Op: ir.OpFirst, Async: true}},
		},
	}
	sources := map[string]stream.Observable[ir.IRValue]{
		"A": stream.Just[ir.IRValue](ir.IRInt(1)),
		"B": stream.Just[ir.IRValue](ir.IRInt(2)),
	}

	plans, err := Bind(spec, sources)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "both", plans[0].ID())
	assert.False(t, plans[0].IsAsync())
	assert.Equal(t, 2, plans[0].Pattern().Len())
	assert.Equal(t, "only_b", plans[1].ID())
	assert.True(t, plans[1].IsAsync())

	out := testutil.NewCollector[ir.IRValue]()
	coord, err := join.Join(t.Context(), out, plans, join.WithIDGenerator(testutil.NewFixedID("")))
	require.NoError(t, err)
	defer coord.Dispose()

	<-out.Done()
	assert.Equal(t, 2, coord.Sources())
	assert.Equal(t, "test-coordinator", coord.ID())
	assert.True(t, out.Completed())
}

func TestBind_MissingObservable(t *testing.T) {
	spec := pairsSpec()

	_, err := Bind(spec, map[string]stream.Observable[ir.IRValue]{
		"A": stream.Never[ir.IRValue](),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source B: no observable bound")
}

func TestBind_UnknownPatternSource(t *testing.T) {
	spec := pairsSpec()
	spec.Plans[0].Pattern = []string{"A", "C"}

	_, err := Bind(spec, map[string]stream.Observable[ir.IRValue]{
		"A": stream.Never[ir.IRValue](),
		"B": stream.Never[ir.IRValue](),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan add: unknown source C")
}

func TestBind_DuplicateSourceInPattern(t *testing.T) {
	spec := pairsSpec()
	spec.Plans[0].Pattern = []string{"A", "A"}

	_, err := Bind(spec, map[string]stream.Observable[ir.IRValue]{
		"A": stream.Never[ir.IRValue](),
		"B": stream.Never[ir.IRValue](),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, join.ErrDuplicateSource))
}

func TestApply_RejectsForeignOperands(t *testing.T) {
	_, err := apply(ir.ReactionDecl{Op: ir.OpSum}, []any{ir.IRInt(1), 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrOperandType))

	v, err := apply(ir.ReactionDecl{Op: ir.OpSum}, []any{ir.IRInt(1), ir.IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(3), v)
}
