package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const pairsCUE = `package test

join: pairs: {
	description: "Adds each A to the next B"
	sources: ["A", "B"]
	plan: add: {
		when: ["A", "B"]
		then: "sum"
	}
}
`

const pairsScenario = `name: pairs-run
description: "Pairs one A with one B, then retires"
spec: joins.cue
join: pairs
steps:
  - push: A
    value: 1
  - push: B
    value: 10
  - complete: A
  - push: B
    value: 20
expect:
  values: [11]
  completed: true
assertions:
  - type: retired
    plan: add
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeJoins creates a directory holding one CUE file.
func writeJoins(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "joins.cue", content)
	return dir
}

// writeScenarioDir creates a directory with the pairs join and one scenario.
func writeScenarioDir(t *testing.T, scenario string) (dir, path string) {
	t.Helper()
	dir = writeJoins(t, pairsCUE)
	path = writeFile(t, dir, "pairs.yaml", scenario)
	return dir, path
}

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
