// Package harness runs join scenarios end to end.
//
// A scenario names a join declared in a CUE file, a list of steps pushed
// into that join's sources, and the downstream outcome it expects. The
// harness compiles the join, binds it to one Subject per declared source,
// drives the steps synchronously and records the coordinator's trace.
//
// Runs are deterministic: the coordinator id is the scenario name and trace
// sequence numbers come from a fresh testutil.DeterministicClock, so the
// canonical trace of a scenario is byte-identical across runs and can be
// compared against a golden file.
//
// Async reactions are awaited after every step, which keeps their delivery
// order tied to the step order.
package harness
