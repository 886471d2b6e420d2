package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kind     string // optional - filter to one event kind
}

// TraceResult holds the trace of one coordinator.
type TraceResult struct {
	Coordinator store.CoordinatorRecord `json:"coordinator"`
	Events      []join.TraceEvent       `json:"events"`
	Stats       TraceStats              `json:"stats"`
}

// TraceStats holds summary statistics for a trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Arrivals    int `json:"arrivals"`
	Fired       int `json:"fired"`
	Delivered   int `json:"delivered"`
	Retired     int `json:"retired"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [coordinator-id]",
		Short: "Inspect recorded coordinators",
		Long: `Inspect runs recorded by the run command.

Without an id, lists every recorded coordinator. With an id, prints that
coordinator's trace in sequence order.

Examples:
  rendezvous trace --db ./rendezvous.db
  rendezvous trace --db ./rendezvous.db 0190f5e4-...
  rendezvous trace --db ./rendezvous.db 0190f5e4-... --kind fired
  rendezvous trace --db ./rendezvous.db 0190f5e4-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListCoordinators(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind (arrival, fired, ...)")

	return cmd
}

func runListCoordinators(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database, store.WithLogger(formatter.Logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	records, err := st.ListCoordinators(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list coordinators", err)
	}

	if opts.Format == "json" {
		return formatter.Response(CLIResponse{Status: "ok", Data: records})
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No coordinators recorded.")
		return nil
	}
	for _, rec := range records {
		label := rec.JoinName
		if rec.Scenario != "" {
			label += " (" + rec.Scenario + ")"
		}
		fmt.Fprintf(w, "%s  %-10s %s\n", rec.ID, rec.State, label)
	}
	return nil
}

func runTrace(opts *TraceOptions, coordinatorID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database, store.WithLogger(formatter.Logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.ReadCoordinator(ctx, coordinatorID)
	if errors.Is(err, store.ErrCoordinatorNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown coordinator", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read coordinator", err)
	}

	events, err := st.ReadTrace(ctx, coordinatorID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := TraceResult{
		Coordinator: rec,
		Events:      filterEvents(events, join.EventKind(opts.Kind)),
		Stats:       traceStats(events),
	}

	if opts.Format == "json" {
		return formatter.Response(CLIResponse{Status: "ok", Data: result, CoordinatorID: rec.ID})
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// filterEvents keeps events of kind, or all events when kind is empty.
// Always returns a non-nil slice.
func filterEvents(events []join.TraceEvent, kind join.EventKind) []join.TraceEvent {
	out := []join.TraceEvent{}
	for _, ev := range events {
		if kind == "" || ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func traceStats(events []join.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, ev := range events {
		switch ev.Kind {
		case join.EventArrival:
			stats.Arrivals++
		case join.EventFired:
			stats.Fired++
		case join.EventDelivered:
			stats.Delivered++
		case join.EventRetired:
			stats.Retired++
		}
	}
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	rec := result.Coordinator
	fmt.Fprintf(w, "Trace for Coordinator: %s\n", rec.ID)
	fmt.Fprintf(w, "Join: %s\n", rec.JoinName)
	if rec.Scenario != "" {
		fmt.Fprintf(w, "Scenario: %s\n", rec.Scenario)
	}
	fmt.Fprintf(w, "State: %s\n", rec.State)
	if verbose {
		fmt.Fprintf(w, "Spec Hash: %s\n", rec.SpecHash)
		fmt.Fprintf(w, "Versions: ir=%s engine=%s\n", rec.IRVersion, rec.EngineVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Events {
		fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, formatEvent(ev))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Arrivals:     %d\n", result.Stats.Arrivals)
	fmt.Fprintf(w, "  Fired:        %d\n", result.Stats.Fired)
	fmt.Fprintf(w, "  Delivered:    %d\n", result.Stats.Delivered)
	fmt.Fprintf(w, "  Retired:      %d\n", result.Stats.Retired)

	return nil
}

// formatEvent renders one event on a single line, e.g.
// "ARRIVAL A next 1" or "FIRED add [1,10]".
func formatEvent(ev join.TraceEvent) string {
	parts := []string{strings.ToUpper(string(ev.Kind))}
	if ev.Plan != "" {
		parts = append(parts, ev.Plan)
	}
	if ev.Source != "" {
		parts = append(parts, ev.Source)
	}
	if ev.Notification != "" {
		parts = append(parts, ev.Notification)
	}
	if len(ev.Values) > 0 {
		parts = append(parts, formatValues(ev.Values))
	}
	if ev.Error != "" {
		parts = append(parts, "error="+ev.Error)
	}
	return strings.Join(parts, " ")
}

// formatValues renders event values: a single value bare, several as a
// canonical JSON array.
func formatValues(values []any) string {
	if len(values) == 1 {
		if v, ok := values[0].(ir.IRValue); ok {
			return ir.Format(v)
		}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return fmt.Sprintf("%v", values)
	}
	return string(data)
}
