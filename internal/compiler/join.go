package compiler

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rendezvous/internal/ir"
)

// CompileJoin parses a CUE value into a JoinSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the join struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`join: pairs: { ... }`)
//	spec, err := CompileJoin(v.LookupPath(cue.ParsePath("join.pairs")))
//
// A join declares its sources as a list of names and its plans as a struct
// whose field order is the plan declaration order:
//
//	join: pairs: {
//		sources: ["A", "B"]
//		plan: add: {
//			when: ["A", "B"]
//			then: "sum"
//		}
//		plan: boom: {
//			when: ["B"]
//			then: {op: "fail", message: "no B allowed"}
//		}
//	}
//
// CompileJoin checks structure and types only; Validate checks references.
func CompileJoin(v cue.Value) (*ir.JoinSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.JoinSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = ir.NormalizeName(strings.Trim(labels[len(labels)-1].String(), `"`))
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, fieldError("description", descVal, err)
		}
		spec.Description = desc
	}

	var err error
	spec.Sources, err = parseSources(v)
	if err != nil {
		return nil, err
	}

	spec.Plans, err = parsePlans(v)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// CompileJoins compiles every join under the top-level "join" field of v,
// in declaration order.
func CompileJoins(v cue.Value) ([]ir.JoinSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	joinsVal := v.LookupPath(cue.ParsePath("join"))
	if !joinsVal.Exists() {
		return nil, nil
	}

	iter, err := joinsVal.Fields()
	if err != nil {
		return nil, fieldError("join", joinsVal, err)
	}

	var specs []ir.JoinSpec
	for iter.Next() {
		spec, err := CompileJoin(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("join %s: %w", iter.Selector().Unquoted(), err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileFile compiles every join declared in one CUE file.
func CompileFile(path string) ([]ir.JoinSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return CompileJoins(v)
}

// parseSources extracts the declared source names.
func parseSources(v cue.Value) ([]ir.SourceDecl, error) {
	sourcesVal := v.LookupPath(cue.ParsePath("sources"))
	if !sourcesVal.Exists() {
		return nil, &CompileError{
			Field:   "sources",
			Message: "sources is required",
			Pos:     v.Pos(),
		}
	}

	names, err := parseNameList("sources", sourcesVal)
	if err != nil {
		return nil, err
	}

	sources := make([]ir.SourceDecl, len(names))
	for i, name := range names {
		sources[i] = ir.SourceDecl{Name: name}
	}
	return sources, nil
}

// parsePlans extracts plans in declaration order.
func parsePlans(v cue.Value) ([]ir.PlanDecl, error) {
	plansVal := v.LookupPath(cue.ParsePath("plan"))
	if !plansVal.Exists() {
		return nil, &CompileError{
			Field:   "plan",
			Message: "at least one plan is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := plansVal.Fields()
	if err != nil {
		return nil, fieldError("plan", plansVal, err)
	}

	var plans []ir.PlanDecl
	for iter.Next() {
		plan, err := parsePlan(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func parsePlan(id string, v cue.Value) (ir.PlanDecl, error) {
	plan := ir.PlanDecl{ID: ir.NormalizeName(id)}
	field := "plan." + id

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return plan, &CompileError{
			Field:   field + ".when",
			Message: "when is required",
			Pos:     v.Pos(),
		}
	}
	pattern, err := parseNameList(field+".when", whenVal)
	if err != nil {
		return plan, err
	}
	plan.Pattern = pattern

	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return plan, &CompileError{
			Field:   field + ".then",
			Message: "then is required",
			Pos:     v.Pos(),
		}
	}
	plan.Reaction, err = parseReaction(field+".then", thenVal)
	if err != nil {
		return plan, err
	}

	return plan, nil
}

// parseReaction accepts either a bare op name or a struct with op, async and
// message fields.
func parseReaction(field string, v cue.Value) (ir.ReactionDecl, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		op, err := v.String()
		if err != nil {
			return ir.ReactionDecl{}, fieldError(field, v, err)
		}
		return ir.ReactionDecl{Op: ir.Op(op)}, nil

	case cue.StructKind:
		var r ir.ReactionDecl

		opVal := v.LookupPath(cue.ParsePath("op"))
		if !opVal.Exists() {
			return r, &CompileError{
				Field:   field + ".op",
				Message: "op is required",
				Pos:     v.Pos(),
			}
		}
		op, err := opVal.String()
		if err != nil {
			return r, fieldError(field+".op", opVal, err)
		}
		r.Op = ir.Op(op)

		if asyncVal := v.LookupPath(cue.ParsePath("async")); asyncVal.Exists() {
			if r.Async, err = asyncVal.Bool(); err != nil {
				return r, fieldError(field+".async", asyncVal, err)
			}
		}
		if msgVal := v.LookupPath(cue.ParsePath("message")); msgVal.Exists() {
			if r.Message, err = msgVal.String(); err != nil {
				return r, fieldError(field+".message", msgVal, err)
			}
		}
		return r, nil

	default:
		return ir.ReactionDecl{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("then must be an op name or a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// parseNameList decodes a list of strings, NFC-normalising each name.
func parseNameList(field string, v cue.Value) ([]string, error) {
	if v.IncompleteKind() != cue.ListKind {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected a list of names, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.List()
	if err != nil {
		return nil, fieldError(field, v, err)
	}

	var names []string
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "names must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		names = append(names, ir.NormalizeName(s))
	}
	return names, nil
}

// fieldError attaches a field name to a CUE decoding error.
func fieldError(field string, v cue.Value, err error) error {
	if ferr := formatCUEError(err); ferr != nil {
		if ce, ok := ferr.(*CompileError); ok {
			ce.Field = field
			return ce
		}
	}
	return &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
}
