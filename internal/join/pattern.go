package join

import (
	"fmt"
	"slices"
)

// Pattern is an immutable ordered list of sources: the join condition "each
// of these has a value pending". Order matters, it is the order in which
// consumed values are passed to the reaction.
type Pattern struct {
	inputs []Input
}

// When starts a pattern.
func When(inputs ...Input) Pattern {
	return Pattern{inputs: slices.Clone(inputs)}
}

// And returns a new pattern with in appended. p is left unchanged.
func (p Pattern) And(in Input) Pattern {
	inputs := make([]Input, 0, len(p.inputs)+1)
	inputs = append(inputs, p.inputs...)
	inputs = append(inputs, in)
	return Pattern{inputs: inputs}
}

// Len returns the number of sources in the pattern.
func (p Pattern) Len() int {
	return len(p.inputs)
}

func (p Pattern) validate() error {
	if len(p.inputs) == 0 {
		return ErrEmptyPattern
	}
	seen := make(map[any]int, len(p.inputs))
	for i, in := range p.inputs {
		if in == nil {
			return fmt.Errorf("join: pattern source %d is nil", i)
		}
		if j, dup := seen[in.identity()]; dup {
			return fmt.Errorf("%w (positions %d and %d)", ErrDuplicateSource, j, i)
		}
		seen[in.identity()] = i
	}
	return nil
}

// Pattern1 is a one-source pattern with a statically known element type.
type Pattern1[A any] struct{ Pattern }

// Pattern2 is a two-source pattern with statically known element types.
type Pattern2[A, B any] struct{ Pattern }

// Pattern3 is a three-source pattern with statically known element types.
type Pattern3[A, B, C any] struct{ Pattern }

// Pattern4 is a four-source pattern with statically known element types.
type Pattern4[A, B, C, D any] struct{ Pattern }

// When1 builds a typed one-source pattern.
func When1[A any](a *Source[A]) Pattern1[A] {
	return Pattern1[A]{When(a)}
}

// When2 builds a typed two-source pattern.
func When2[A, B any](a *Source[A], b *Source[B]) Pattern2[A, B] {
	return Pattern2[A, B]{When(a, b)}
}

// When3 builds a typed three-source pattern.
func When3[A, B, C any](a *Source[A], b *Source[B], c *Source[C]) Pattern3[A, B, C] {
	return Pattern3[A, B, C]{When(a, b, c)}
}

// When4 builds a typed four-source pattern.
func When4[A, B, C, D any](a *Source[A], b *Source[B], c *Source[C], d *Source[D]) Pattern4[A, B, C, D] {
	return Pattern4[A, B, C, D]{When(a, b, c, d)}
}
