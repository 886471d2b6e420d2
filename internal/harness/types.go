package harness

import (
	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and every assertion hold.
	Pass bool `json:"pass"`

	// CoordinatorID is the id of the coordinator that ran the scenario.
	CoordinatorID string `json:"coordinator_id"`

	// Values are the results delivered downstream, in order.
	Values []ir.IRValue `json:"values"`

	// Error is the terminal error message, if the join failed.
	Error string `json:"error,omitempty"`

	// Completed reports whether the join completed normally.
	Completed bool `json:"completed"`

	// Trace is the coordinator's trace, in seq order.
	Trace []join.TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Values: []ir.IRValue{},
		Trace:  []join.TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// count returns how many trace events match kind and, when set, plan and
// source.
func (r *Result) count(kind join.EventKind, plan, source string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Kind != kind {
			continue
		}
		if plan != "" && ev.Plan != plan {
			continue
		}
		if source != "" && ev.Source != source {
			continue
		}
		n++
	}
	return n
}
