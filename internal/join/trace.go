package join

import (
	"slices"
	"sync"
)

// EventKind classifies trace events.
type EventKind string

const (
	// EventStarted is recorded once when a coordinator has activated its plans.
	EventStarted EventKind = "started"
	// EventArrival is a notification enqueued by a source observer.
	EventArrival EventKind = "arrival"
	// EventFired is a successful match: one value consumed from every source
	// of a plan.
	EventFired EventKind = "fired"
	// EventDelivered is a reaction result handed to the downstream observer.
	EventDelivered EventKind = "delivered"
	// EventRetired is a plan leaving all of its sources after a completion.
	EventRetired EventKind = "retired"
	// EventDisposed is a source subscription being cancelled.
	EventDisposed EventKind = "disposed"
	// EventFailed is the coordinator terminating with an error.
	EventFailed EventKind = "failed"
	// EventCompleted is the coordinator completing after its last plan retired.
	EventCompleted EventKind = "completed"
	// EventCancelled is the coordinator being disposed from outside.
	EventCancelled EventKind = "cancelled"
)

// TraceEvent is one observable step of a coordinator. Events of one
// coordinator are recorded under its gate, so their Seq order is the order in
// which they happened.
type TraceEvent struct {
	Seq           int64     `json:"seq"`
	CoordinatorID string    `json:"coordinator_id"`
	Kind          EventKind `json:"kind"`
	Plan          string    `json:"plan,omitempty"`
	Source        string    `json:"source,omitempty"`
	Notification  string    `json:"notification,omitempty"`
	Values        []any     `json:"values,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Recorder receives trace events. Implementations must not call back into
// the coordinator.
type Recorder interface {
	Record(ev TraceEvent)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ev TraceEvent)

// Record calls f(ev).
func (f RecorderFunc) Record(ev TraceEvent) {
	f(ev)
}

type nopRecorder struct{}

func (nopRecorder) Record(TraceEvent) {}

// MemoryRecorder keeps trace events in memory. Safe for concurrent use.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends ev.
func (r *MemoryRecorder) Record(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in recording order.
func (r *MemoryRecorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Filter returns the recorded events of the given kind.
func (r *MemoryRecorder) Filter(kind EventKind) []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []TraceEvent
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
