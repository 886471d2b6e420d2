package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
)

func TestGolden_Scenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestSnapshot_Format(t *testing.T) {
	trace := []join.TraceEvent{
		{Seq: 1, CoordinatorID: "c", Kind: join.EventStarted},
		{Seq: 2, CoordinatorID: "c", Kind: join.EventArrival, Source: "A", Notification: "next", Values: []any{ir.IRString("x")}},
		{Seq: 3, CoordinatorID: "c", Kind: join.EventFailed, Error: "boom"},
	}

	data, err := Snapshot("fmt", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario":"fmt","trace":[{"kind":"started","seq":1},{"kind":"arrival","notification":"next","seq":2,"source":"A","values":["x"]},{"error":"boom","kind":"failed","seq":3}]}`,
		string(data))
}

func TestSnapshot_RejectsFloats(t *testing.T) {
	trace := []join.TraceEvent{
		{Seq: 1, Kind: join.EventDelivered, Plan: "p", Values: []any{1.5}},
	}

	_, err := Snapshot("float", trace)
	require.Error(t, err)
}
