package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// JoinSpec is a compiled join declaration: a set of named sources and the
// plans joining them.
type JoinSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Sources     []SourceDecl `json:"sources"`
	Plans       []PlanDecl   `json:"plans"`
}

// SourceDecl declares one push source. Declarative sources carry IRValues.
type SourceDecl struct {
	Name string `json:"name"`
}

// PlanDecl is a pattern over declared sources plus the reaction to run when
// every one of them has a value pending.
type PlanDecl struct {
	ID       string       `json:"id"`
	Pattern  []string     `json:"pattern"` // source names, reaction argument order
	Reaction ReactionDecl `json:"reaction"`
}

// ReactionDecl selects a built-in reaction.
type ReactionDecl struct {
	Op      Op     `json:"op"`
	Async   bool   `json:"async,omitempty"`   // run off the coordinator gate
	Message string `json:"message,omitempty"` // fail only
}

// Op names a built-in reaction.
type Op string

// Built-in reactions. See Apply.
const (
	OpSum     Op = "sum"
	OpProduct Op = "product"
	OpConcat  Op = "concat"
	OpTuple   Op = "tuple"
	OpFirst   Op = "first"
	OpFail    Op = "fail"
)

// ValidOps defines allowed reaction ops.
var ValidOps = map[Op]bool{
	OpSum:     true,
	OpProduct: true,
	OpConcat:  true,
	OpTuple:   true,
	OpFirst:   true,
	OpFail:    true,
}

// NormalizeName trims and NFC-normalises a source or plan name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// SourceNames returns the declared source names in declaration order.
func (s JoinSpec) SourceNames() []string {
	names := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		names[i] = src.Name
	}
	return names
}

// Plan returns the plan with the given id.
func (s JoinSpec) Plan(id string) (PlanDecl, bool) {
	for _, p := range s.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return PlanDecl{}, false
}

// HasSource reports whether name is a declared source.
func (s JoinSpec) HasSource(name string) bool {
	for _, src := range s.Sources {
		if src.Name == name {
			return true
		}
	}
	return false
}
