package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
)

// Snapshot renders a trace as canonical JSON:
//
//	{"scenario":"<name>","trace":[{"kind":"started","seq":1},...]}
//
// The coordinator id is left out: it is already fixed per scenario and
// carries no information in a golden file.
func Snapshot(name string, trace []join.TraceEvent) ([]byte, error) {
	events := make([]any, len(trace))
	for i, ev := range trace {
		m := map[string]any{
			"seq":  ev.Seq,
			"kind": string(ev.Kind),
		}
		if ev.Plan != "" {
			m["plan"] = ev.Plan
		}
		if ev.Source != "" {
			m["source"] = ev.Source
		}
		if ev.Notification != "" {
			m["notification"] = ev.Notification
		}
		if len(ev.Values) > 0 {
			m["values"] = ev.Values
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		events[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": name,
		"trace":    events,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
