package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/rendezvous/internal/harness"
	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// IDGenerator overrides the coordinator id generator (for testing).
	// If nil, defaults to join.UUIDv7Generator.
	IDGenerator join.IDGenerator
}

// RunSummary is the outcome of one recorded run.
type RunSummary struct {
	CoordinatorID string   `json:"coordinator_id"`
	Join          string   `json:"join"`
	SpecHash      string   `json:"spec_hash"`
	Values        []string `json:"values"`
	Completed     bool     `json:"completed"`
	Error         string   `json:"error,omitempty"`
	Events        int      `json:"events"`
	Pass          bool     `json:"pass"`
	Errors        []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and record its trace",
		Long: `Run one scenario against its join and record the coordinator and every
trace event in a SQLite database, creating it if it doesn't exist.

The coordinator id is printed so the run can be inspected with trace.

Example:
  rendezvous run --db ./rendezvous.db ./scenarios/sum_pairs.yaml
  rendezvous trace --db ./rendezvous.db <coordinator-id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioRecorded(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runScenarioRecorded(opts *RunOptions, scenarioFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()
	ctx := commandContext(cmd)

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	spec, err := harness.LoadJoin(scenario.Spec, scenario.Join)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load join", err)
	}
	hash, err := ir.SpecHash(*spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash join", err)
	}
	logger.Debug("join loaded", "join", spec.Name, "spec", filepath.Base(scenario.Spec), "spec_hash", hash)

	st, err := store.Open(opts.Database, store.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	gen := opts.IDGenerator
	if gen == nil {
		gen = join.UUIDv7Generator{}
	}
	id := gen.Generate()

	// The coordinator row must exist before its first trace event.
	if err := st.WriteCoordinator(ctx, store.CoordinatorRecord{
		ID:            id,
		JoinName:      spec.Name,
		Scenario:      scenario.Name,
		SpecHash:      hash,
		IRVersion:     ir.IRVersion,
		EngineVersion: ir.EngineVersion,
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to record coordinator", err)
	}

	result, err := harness.Execute(scenario, *spec,
		harness.WithRecorder(st),
		harness.WithIDGenerator(join.NewFixedGenerator(id)),
		harness.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	events, err := st.CountEvents(ctx, id, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count recorded events", err)
	}

	summary := RunSummary{
		CoordinatorID: id,
		Join:          spec.Name,
		SpecHash:      hash,
		Values:        make([]string, len(result.Values)),
		Completed:     result.Completed,
		Error:         result.Error,
		Events:        events,
		Pass:          result.Pass,
		Errors:        result.Errors,
	}
	for i, v := range result.Values {
		summary.Values[i] = ir.Format(v)
	}

	if err := outputRunSummary(formatter, summary); err != nil {
		return err
	}
	if !summary.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(summary.Errors)))
	}
	return nil
}

func outputRunSummary(formatter *OutputFormatter, s RunSummary) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: s, CoordinatorID: s.CoordinatorID}
		if !s.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: s.Errors[0]}
		}
		return formatter.Response(resp)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Coordinator: %s\n", s.CoordinatorID)
	fmt.Fprintf(w, "Join: %s [%s]\n", s.Join, s.SpecHash)
	for _, v := range s.Values {
		fmt.Fprintf(w, "  → %s\n", v)
	}
	switch {
	case s.Error != "":
		fmt.Fprintf(w, "Failed: %s\n", s.Error)
	case s.Completed:
		fmt.Fprintln(w, "Completed")
	default:
		fmt.Fprintln(w, "Cancelled")
	}
	fmt.Fprintf(w, "Recorded %d event(s)\n", s.Events)

	if s.Pass {
		fmt.Fprintln(w, "✓ Expectations met")
		return nil
	}
	fmt.Fprintln(w, "✗ Expectations not met")
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}
