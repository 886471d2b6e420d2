package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rendezvous/internal/ir"
	"github.com/roach88/rendezvous/internal/join"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Trace    []join.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, describeEvent(ev))
		}
	}

	return buf.String()
}

func describeEvent(ev join.TraceEvent) string {
	parts := []string{string(ev.Kind)}
	if ev.Plan != "" {
		parts = append(parts, "plan="+ev.Plan)
	}
	if ev.Source != "" {
		parts = append(parts, "source="+ev.Source)
	}
	if ev.Notification != "" {
		parts = append(parts, ev.Notification)
	}
	if len(ev.Values) > 0 {
		parts = append(parts, fmt.Sprintf("%v", ev.Values))
	}
	if ev.Error != "" {
		parts = append(parts, "error="+ev.Error)
	}
	return strings.Join(parts, " ")
}

// assertRetired checks that the plan retired.
func assertRetired(result *Result, assertion Assertion) error {
	if result.count(join.EventRetired, assertion.Plan, "") > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertRetired,
		Expected: fmt.Sprintf("plan %s retired", assertion.Plan),
		Actual:   "no retired event in trace",
		Trace:    result.Trace,
	}
}

// assertFiredCount checks that the plan fired exactly Count times.
func assertFiredCount(result *Result, assertion Assertion) error {
	count := result.count(join.EventFired, assertion.Plan, "")
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFiredCount,
		Expected: fmt.Sprintf("%d matches of plan %s", assertion.Count, assertion.Plan),
		Actual:   fmt.Sprintf("%d matches", count),
		Trace:    result.Trace,
	}
}

// assertValueCount checks how many values reached the downstream observer.
func assertValueCount(result *Result, assertion Assertion) error {
	if len(result.Values) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertValueCount,
		Expected: fmt.Sprintf("%d delivered values", assertion.Count),
		Actual:   fmt.Sprintf("%d delivered values", len(result.Values)),
		Trace:    result.Trace,
	}
}

// assertSourceDisposed checks that the source's subscription was cancelled.
func assertSourceDisposed(result *Result, assertion Assertion) error {
	if result.count(join.EventDisposed, "", assertion.Source) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertSourceDisposed,
		Expected: fmt.Sprintf("source %s disposed", assertion.Source),
		Actual:   "no disposed event in trace",
		Trace:    result.Trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRetired:
			err = assertRetired(result, assertion)
		case AssertFiredCount:
			err = assertFiredCount(result, assertion)
		case AssertValueCount:
			err = assertValueCount(result, assertion)
		case AssertSourceDisposed:
			err = assertSourceDisposed(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// EvaluateExpectation compares the downstream outcome with expect.
// Returns a slice of error messages for mismatches.
func EvaluateExpectation(result *Result, expect Expectation) []string {
	var errors []string

	want := make([]ir.IRValue, 0, len(expect.Values))
	for i, raw := range expect.Values {
		v, err := ir.FromAny(raw)
		if err != nil {
			errors = append(errors, fmt.Sprintf("expect.values[%d]: %v", i, err))
			continue
		}
		want = append(want, v)
	}
	if len(errors) == 0 && !valuesEqual(want, result.Values) {
		errors = append(errors, fmt.Sprintf("values: expected %s, got %s", formatValues(want), formatValues(result.Values)))
	}

	switch {
	case expect.Error == "" && result.Error != "":
		errors = append(errors, fmt.Sprintf("error: expected none, got %q", result.Error))
	case expect.Error != "" && !strings.Contains(result.Error, expect.Error):
		errors = append(errors, fmt.Sprintf("error: expected %q, got %q", expect.Error, result.Error))
	}

	if expect.Completed != nil && *expect.Completed != result.Completed {
		errors = append(errors, fmt.Sprintf("completed: expected %t, got %t", *expect.Completed, result.Completed))
	}

	return errors
}

func valuesEqual(a, b []ir.IRValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ir.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func formatValues(vs []ir.IRValue) string {
	data, err := ir.MarshalCanonical(ir.IRArray(vs))
	if err != nil {
		return fmt.Sprintf("%v", vs)
	}
	return string(data)
}
