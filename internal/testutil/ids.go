package testutil

import "github.com/roach88/rendezvous/internal/join"

// FixedID hands every coordinator the same id.
//
// join.FixedGenerator returns ids in sequence and panics when exhausted;
// FixedID suits harness runs where every coordinator should share the
// scenario's name so traces are byte-identical across runs.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedID struct {
	id string
}

var _ join.IDGenerator = FixedID{}

// NewFixedID creates a fixed id generator. An empty id becomes
// "test-coordinator".
func NewFixedID(id string) FixedID {
	if id == "" {
		id = "test-coordinator"
	}
	return FixedID{id: id}
}

// Generate returns the fixed id.
func (g FixedID) Generate() string {
	return g.id
}
