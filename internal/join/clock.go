package join

import "sync/atomic"

// Sequencer issues trace sequence numbers. Next must be strictly increasing
// and safe for concurrent use.
type Sequencer interface {
	Next() int64
}

// Clock stamps trace events with a strictly increasing logical sequence.
//
// Wall-clock time is never used for ordering: two runs of the same
// synchronous scenario produce identical seq values, which keeps recorded
// traces comparable.
//
// Thread-safety: Clock is safe for concurrent use. A single clock may be
// shared by several coordinators (see WithClock) so that their events
// interleave in one total order.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Used when appending to an existing trace store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
