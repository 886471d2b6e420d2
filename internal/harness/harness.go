package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/rendezvous/internal/compiler"
	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/stream"
	"github.com/roach88/rendezvous/internal/testutil"
)

// DefaultSettleTimeout bounds how long Run waits for async reactions after
// each step.
const DefaultSettleTimeout = 5 * time.Second

// Option configures a scenario run.
type Option func(*Harness)

// WithRecorder also sends every trace event to r, for example a store.
func WithRecorder(r join.Recorder) Option {
	return func(h *Harness) {
		h.recorder = r
	}
}

// WithLogger sets the coordinator logger. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithIDGenerator overrides the coordinator id, which defaults to the
// scenario name.
func WithIDGenerator(g join.IDGenerator) Option {
	return func(h *Harness) {
		h.ids = g
	}
}

// WithSettleTimeout overrides DefaultSettleTimeout.
func WithSettleTimeout(d time.Duration) Option {
	return func(h *Harness) {
		h.settle = d
	}
}

// Harness is the test execution engine.
// It runs one scenario with a deterministic clock and coordinator id.
type Harness struct {
	recorder join.Recorder
	logger   *slog.Logger
	ids      join.IDGenerator
	settle   time.Duration
	clock    *testutil.DeterministicClock
}

// Run compiles the scenario's join and executes it.
//
// Execution flow:
//  1. Compile the CUE file and select the join
//  2. Validate the declared join
//  3. Bind it to one Subject per declared source and start the coordinator
//  4. Apply each step, waiting for async reactions to settle
//  5. Compare the outcome with the expectation and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	spec, err := LoadJoin(scenario.Spec, scenario.Join)
	if err != nil {
		return nil, err
	}
	return Execute(scenario, *spec, opts...)
}

// LoadJoin compiles path and returns the validated join called name. An
// empty name selects the only join in the file.
func LoadJoin(path, name string) (*ir.JoinSpec, error) {
	specs, err := compiler.CompileFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	spec, err := selectJoin(specs, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, fmt.Errorf("join %s is invalid: %s", spec.Name, strings.Join(msgs, "; "))
	}
	return spec, nil
}

func selectJoin(specs []ir.JoinSpec, name string) (*ir.JoinSpec, error) {
	if name == "" {
		if len(specs) != 1 {
			return nil, fmt.Errorf("join name is required: file declares %d joins", len(specs))
		}
		return &specs[0], nil
	}
	want := ir.NormalizeName(name)
	for i := range specs {
		if specs[i].Name == want {
			return &specs[i], nil
		}
	}
	return nil, fmt.Errorf("join %q not found", name)
}

// Execute runs scenario against an already compiled join.
func Execute(scenario *Scenario, spec ir.JoinSpec, opts ...Option) (*Result, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    testutil.NewFixedID(scenario.Name),
		settle: DefaultSettleTimeout,
		clock:  testutil.NewDeterministicClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.execute(scenario, spec)
}

func (h *Harness) execute(scenario *Scenario, spec ir.JoinSpec) (*Result, error) {
	subjects := make(map[string]*stream.Subject[ir.IRValue], len(spec.Sources))
	sources := make(map[string]stream.Observable[ir.IRValue], len(spec.Sources))
	for _, decl := range spec.Sources {
		s := stream.NewSubject[ir.IRValue]()
		subjects[decl.Name] = s
		sources[decl.Name] = s
	}

	plans, err := Bind(spec, sources)
	if err != nil {
		return nil, fmt.Errorf("bind join %s: %w", spec.Name, err)
	}

	memory := join.NewMemoryRecorder()
	var recorder join.Recorder = memory
	if h.recorder != nil {
		extra := h.recorder
		recorder = join.RecorderFunc(func(ev join.TraceEvent) {
			memory.Record(ev)
			extra.Record(ev)
		})
	}

	joinOpts := []join.Option{
		join.WithLogger(h.logger),
		join.WithRecorder(recorder),
		join.WithIDGenerator(h.ids),
		join.WithClock(h.clock),
	}
	if scenario.KeepAlive {
		joinOpts = append(joinOpts, join.WithKeepAlive())
	}

	downstream := testutil.NewCollector[ir.IRValue]()
	coord, err := join.Join(context.Background(), downstream, plans, joinOpts...)
	if err != nil {
		return nil, fmt.Errorf("start join %s: %w", spec.Name, err)
	}
	defer coord.Dispose()

	for i, step := range scenario.Steps {
		if err := applyStep(step, subjects, coord); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if err := h.awaitSettled(coord); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	// Snapshot before the deferred Dispose records a cancellation.
	result := NewResult()
	result.CoordinatorID = coord.ID()
	result.Trace = memory.Events()
	result.Values = append(result.Values, downstream.Values()...)
	result.Completed = downstream.Completed()
	if err := downstream.Err(); err != nil {
		result.Error = err.Error()
	}
	if n := downstream.Terminals(); n > 1 {
		result.AddError(fmt.Sprintf("downstream received %d terminal notifications", n))
	}

	for _, msg := range EvaluateExpectation(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func applyStep(step Step, subjects map[string]*stream.Subject[ir.IRValue], coord *join.Coordinator) error {
	switch {
	case step.Cancel:
		coord.Dispose()
		return nil
	case step.Push != "":
		s, err := subjectFor(subjects, step.Push)
		if err != nil {
			return err
		}
		v, err := ir.FromAny(step.Value)
		if err != nil {
			return fmt.Errorf("push %s: %w", step.Push, err)
		}
		s.OnNext(v)
	case step.Complete != "":
		s, err := subjectFor(subjects, step.Complete)
		if err != nil {
			return err
		}
		s.OnCompleted()
	case step.Fail != "":
		s, err := subjectFor(subjects, step.Fail)
		if err != nil {
			return err
		}
		s.OnError(errors.New(step.Error))
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func subjectFor(subjects map[string]*stream.Subject[ir.IRValue], name string) (*stream.Subject[ir.IRValue], error) {
	s, ok := subjects[ir.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return s, nil
}

// awaitSettled waits until no async reaction is in flight.
func (h *Harness) awaitSettled(coord *join.Coordinator) error {
	deadline := time.Now().Add(h.settle)
	for coord.Pending() > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("async reactions did not settle within %s", h.settle)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
