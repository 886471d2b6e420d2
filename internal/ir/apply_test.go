package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		args []IRValue
		want IRValue
	}{
		{"sum", OpSum, []IRValue{IRInt(1), IRInt(10)}, IRInt(11)},
		{"sum single", OpSum, []IRValue{IRInt(5)}, IRInt(5)},
		{"product", OpProduct, []IRValue{IRInt(3), IRInt(4), IRInt(5)}, IRInt(60)},
		{"concat strings", OpConcat, []IRValue{IRString("ab"), IRString("cd")}, IRString("abcd")},
		{"concat mixed", OpConcat, []IRValue{IRString("n="), IRInt(3)}, IRString("n=3")},
		{"tuple", OpTuple, []IRValue{IRInt(1), IRString("x")}, IRArray{IRInt(1), IRString("x")}},
		{"first", OpFirst, []IRValue{IRBool(true), IRInt(2)}, IRBool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(ReactionDecl{Op: tt.op}, tt.args)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestApplyTupleCopiesArgs(t *testing.T) {
	args := []IRValue{IRInt(1)}
	got, err := Apply(ReactionDecl{Op: OpTuple}, args)
	require.NoError(t, err)

	args[0] = IRInt(2)
	assert.Equal(t, IRArray{IRInt(1)}, got)
}

func TestApplyErrors(t *testing.T) {
	_, err := Apply(ReactionDecl{Op: OpSum}, []IRValue{IRInt(1), IRString("x")})
	assert.ErrorIs(t, err, ErrOperandType)

	_, err = Apply(ReactionDecl{Op: OpFirst}, nil)
	assert.ErrorIs(t, err, ErrOperandType)

	_, err = Apply(ReactionDecl{Op: "divide"}, []IRValue{IRInt(1)})
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = Apply(ReactionDecl{Op: OpFail, Message: "boom"}, []IRValue{IRInt(1)})
	assert.EqualError(t, err, "boom")

	_, err = Apply(ReactionDecl{Op: OpFail}, nil)
	assert.EqualError(t, err, "reaction failed")
}

func TestApplyIntegerOverflow(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		args []IRValue
	}{
		{name: "sum above max", op: OpSum, args: []IRValue{IRInt(math.MaxInt64), IRInt(1)}},
		{name: "sum below min", op: OpSum, args: []IRValue{IRInt(math.MinInt64), IRInt(-1)}},
		{name: "product above max", op: OpProduct, args: []IRValue{IRInt(math.MaxInt64), IRInt(2)}},
		{name: "product of negatives", op: OpProduct, args: []IRValue{IRInt(math.MinInt64), IRInt(-1)}},
		{name: "product below min", op: OpProduct, args: []IRValue{IRInt(math.MinInt64 / 2), IRInt(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(ReactionDecl{Op: tt.op}, tt.args)
			assert.ErrorIs(t, err, ErrOverflow)
			assert.Nil(t, got)
		})
	}

	// Results at the edge of the range still fit.
	got, err := Apply(ReactionDecl{Op: OpSum}, []IRValue{IRInt(math.MaxInt64), IRInt(-1), IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, IRInt(math.MaxInt64), got)

	got, err = Apply(ReactionDecl{Op: OpProduct}, []IRValue{IRInt(math.MinInt64 / 2), IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, IRInt(math.MinInt64), got)
}
