package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "specs/pairs.cue", `join: pairs: {sources: ["A"], plan: p: {when: ["A"], then: "first"}}`)
	path := writeFile(t, dir, "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
spec: specs/pairs.cue
join: pairs
steps:
  - push: A
    value: 1
  - complete: A
expect:
  values: [1]
assertions:
  - type: retired
    plan: p
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "specs/pairs.cue"), scenario.Spec)
	assert.Equal(t, "pairs", scenario.Join)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, "A", scenario.Steps[0].Push)
	assert.Equal(t, 1, scenario.Steps[0].Value)
	assert.Equal(t, "A", scenario.Steps[1].Complete)
	assert.Equal(t, []any{1}, scenario.Expect.Values)
	assert.Nil(t, scenario.Expect.Completed)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "test.yaml", `
name: s
description: d
spec: nowhere.cue
steps:
  - cancel: true
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: s
description: d
spec: x.cue
steps:
  - cancel: true
assertion:
  - type: retired
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nspec: x.cue\nsteps:\n  - cancel: true\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: s\nspec: x.cue\nsteps:\n  - cancel: true\n",
			wantErr: "description is required",
		},
		{
			name:    "missing spec",
			yaml:    "name: s\ndescription: d\nsteps:\n  - cancel: true\n",
			wantErr: "spec is required",
		},
		{
			name:    "no steps",
			yaml:    "name: s\ndescription: d\nspec: x.cue\n",
			wantErr: "steps list is required",
		},
		{
			name:    "two actions in one step",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - push: A\n    value: 1\n    complete: A\n",
			wantErr: "steps[0]: exactly one of",
		},
		{
			name:    "push without value",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - push: A\n",
			wantErr: "value is required for push",
		},
		{
			name:    "fail without error",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - fail: A\n",
			wantErr: "error is required for fail",
		},
		{
			name:    "error without fail",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - complete: A\n    error: boom\n",
			wantErr: "error is only allowed with fail",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - cancel: true\nassertions:\n  - type: bogus\n",
			wantErr: `unknown assertion type "bogus"`,
		},
		{
			name:    "retired without plan",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - cancel: true\nassertions:\n  - type: retired\n",
			wantErr: "plan is required for retired",
		},
		{
			name:    "source_disposed without source",
			yaml:    "name: s\ndescription: d\nspec: x.cue\nsteps:\n  - cancel: true\nassertions:\n  - type: source_disposed\n",
			wantErr: "source is required for source_disposed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_ZeroValuePush(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: s
description: d
spec: x.cue
steps:
  - push: A
    value: 0
  - push: A
    value: false
expect:
  completed: false
`))
	require.NoError(t, err)
	assert.Equal(t, 0, scenario.Steps[0].Value)
	assert.Equal(t, false, scenario.Steps[1].Value)
	require.NotNil(t, scenario.Expect.Completed)
	assert.False(t, *scenario.Expect.Completed)
}
