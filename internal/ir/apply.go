package ir

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnknownOp is returned by Apply for an op outside ValidOps.
	ErrUnknownOp = errors.New("unknown reaction op")
	// ErrOperandType is returned when an op receives a value it cannot use.
	ErrOperandType = errors.New("operand type mismatch")
	// ErrOverflow is returned when sum or product leaves the int64 range.
	ErrOverflow = errors.New("integer overflow")
)

// Apply evaluates a built-in reaction over the values consumed by one match,
// in pattern order.
//
//	sum, product  all operands IRInt, result IRInt; overflow is an error
//	concat        operands rendered with Format and joined, result IRString
//	tuple         IRArray of the operands
//	first         the first operand
//	fail          always fails with the declared message
func Apply(r ReactionDecl, args []IRValue) (IRValue, error) {
	switch r.Op {
	case OpSum:
		return foldInts(r.Op, args, 0, addInt64)
	case OpProduct:
		return foldInts(r.Op, args, 1, mulInt64)
	case OpConcat:
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(Format(a))
		}
		return IRString(sb.String()), nil
	case OpTuple:
		return append(IRArray(nil), args...), nil
	case OpFirst:
		if len(args) == 0 {
			return nil, fmt.Errorf("first: %w: no operands", ErrOperandType)
		}
		return args[0], nil
	case OpFail:
		msg := r.Message
		if msg == "" {
			msg = "reaction failed"
		}
		return nil, errors.New(msg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, r.Op)
	}
}

func foldInts(op Op, args []IRValue, acc int64, fn func(acc, n int64) (int64, bool)) (IRValue, error) {
	for i, a := range args {
		n, ok := a.(IRInt)
		if !ok {
			return nil, fmt.Errorf("%s: %w: operand %d is %T, want int", op, ErrOperandType, i, a)
		}
		if acc, ok = fn(acc, int64(n)); !ok {
			return nil, fmt.Errorf("%s: %w at operand %d", op, ErrOverflow, i)
		}
	}
	return IRInt(acc), nil
}

// addInt64 returns a+b and false when the result does not fit in an int64.
func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// mulInt64 returns a*b and false when the result does not fit in an int64.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}
