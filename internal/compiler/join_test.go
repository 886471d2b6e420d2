package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rendezvous/internal/ir"
)

func compileJoinAt(t *testing.T, src, path string) (*ir.JoinSpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileJoin(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileJoinBasic(t *testing.T) {
	spec, err := compileJoinAt(t, `
		join: pairs: {
			description: "adds one value from each side"
			sources: ["A", "B"]
			plan: add: {
				when: ["A", "B"]
				then: "sum"
			}
		}
	`, "join.pairs")
	require.NoError(t, err)

	assert.Equal(t, "pairs", spec.Name)
	assert.Equal(t, "adds one value from each side", spec.Description)
	assert.Equal(t, []ir.SourceDecl{{Name: "A"}, {Name: "B"}}, spec.Sources)
	require.Len(t, spec.Plans, 1)
	assert.Equal(t, ir.PlanDecl{
		ID:       "add",
		Pattern:  []string{"A", "B"},
		Reaction: ir.ReactionDecl{Op: ir.OpSum},
	}, spec.Plans[0])
}

func TestCompileJoinReactionStruct(t *testing.T) {
	spec, err := compileJoinAt(t, `
		join: guarded: {
			sources: ["A"]
			plan: reject: {
				when: ["A"]
				then: {op: "fail", message: "no A allowed"}
			}
			plan: slow: {
				when: ["A"]
				then: {op: "first", async: true}
			}
		}
	`, "join.guarded")
	require.NoError(t, err)

	require.Len(t, spec.Plans, 2)
	assert.Equal(t, ir.ReactionDecl{Op: ir.OpFail, Message: "no A allowed"}, spec.Plans[0].Reaction)
	assert.Equal(t, ir.ReactionDecl{Op: ir.OpFirst, Async: true}, spec.Plans[1].Reaction)
}

func TestCompileJoinPreservesPlanOrder(t *testing.T) {
	spec, err := compileJoinAt(t, `
		join: ordered: {
			sources: ["A"]
			plan: zeta: {when: ["A"], then: "first"}
			plan: alpha: {when: ["A"], then: "first"}
			plan: mid: {when: ["A"], then: "first"}
		}
	`, "join.ordered")
	require.NoError(t, err)

	ids := make([]string, len(spec.Plans))
	for i, p := range spec.Plans {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)
}

func TestCompileJoinQuotedLabels(t *testing.T) {
	spec, err := compileJoinAt(t, `
		join: "left-right": {
			sources: ["left", "right"]
			plan: "pair-up": {when: ["left", "right"], then: "tuple"}
		}
	`, `join."left-right"`)
	require.NoError(t, err)

	assert.Equal(t, "left-right", spec.Name)
	assert.Equal(t, "pair-up", spec.Plans[0].ID)
}

func TestCompileJoinNormalizesNames(t *testing.T) {
	spec, err := compileJoinAt(t, `
		join: accents: {
			sources: ["café"]
			plan: p: {when: ["café"], then: "first"}
		}
	`, "join.accents")
	require.NoError(t, err)

	assert.Equal(t, spec.Sources[0].Name, spec.Plans[0].Pattern[0])
	assert.Empty(t, Validate(spec))
}

func TestCompileJoinMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"no sources", `join: j: { plan: p: {when: ["A"], then: "sum"} }`, "sources"},
		{"no plans", `join: j: { sources: ["A"] }`, "plan"},
		{"no when", `join: j: { sources: ["A"], plan: p: {then: "sum"} }`, "plan.p.when"},
		{"no then", `join: j: { sources: ["A"], plan: p: {when: ["A"]} }`, "plan.p.then"},
		{"no op", `join: j: { sources: ["A"], plan: p: {when: ["A"], then: {async: true}} }`, "plan.p.then.op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileJoinAt(t, tt.src, "join.j")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileJoinWrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"sources not a list", `join: j: { sources: "A", plan: p: {when: ["A"], then: "sum"} }`, "sources"},
		{"source not a string", `join: j: { sources: ["A", 2], plan: p: {when: ["A"], then: "sum"} }`, "sources[1]"},
		{"then a number", `join: j: { sources: ["A"], plan: p: {when: ["A"], then: 3} }`, "plan.p.then"},
		{"async not a bool", `join: j: { sources: ["A"], plan: p: {when: ["A"], then: {op: "sum", async: "yes"}} }`, "plan.p.then.async"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileJoinAt(t, tt.src, "join.j")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileJoinNonExistentPath(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`join: real: { sources: ["A"], plan: p: {when: ["A"], then: "sum"} }`)
	require.NoError(t, v.Err())

	assert.False(t, v.LookupPath(cue.ParsePath("join.missing")).Exists())
}

func TestCompileJoins(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		join: first: { sources: ["A"], plan: p: {when: ["A"], then: "first"} }
		join: second: { sources: ["B"], plan: q: {when: ["B"], then: "first"} }
	`)

	specs, err := CompileJoins(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "first", specs[0].Name)
	assert.Equal(t, "second", specs[1].Name)
}

func TestCompileJoinsNoJoinField(t *testing.T) {
	ctx := cuecontext.New()
	specs, err := CompileJoins(ctx.CompileString(`other: 1`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCompileJoinsReportsFailingJoin(t *testing.T) {
	ctx := cuecontext.New()
	_, err := CompileJoins(ctx.CompileString(`join: broken: { sources: ["A"] }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join broken")
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
join: pairs: {
	sources: ["A", "B"]
	plan: add: {when: ["A", "B"], then: "sum"}
}
`), 0o644))

	specs, err := CompileFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "pairs", specs[0].Name)
}

func TestCompileFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte("join: {\n\tthis is not valid CUE\n"), 0o644))

	_, err := CompileFile(path)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "sources", Message: "sources is required"}
	assert.Equal(t, "sources: sources is required", err.Error())
}
