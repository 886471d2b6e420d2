package store

import (
	"context"
	"fmt"

	"github.com/roach88/rendezvous/internal/join"
)

// CoordinatorRecord describes one join run.
type CoordinatorRecord struct {
	ID            string `json:"id"`
	JoinName      string `json:"join_name"`
	Scenario      string `json:"scenario,omitempty"`
	SpecHash      string `json:"spec_hash"`
	IRVersion     string `json:"ir_version"`
	EngineVersion string `json:"engine_version"`
	State         string `json:"state"`
}

var _ join.Recorder = (*Store)(nil)

// WriteCoordinator inserts a coordinator record. It must be written before
// any of the coordinator's trace events.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteCoordinator(ctx context.Context, rec CoordinatorRecord) error {
	state := rec.State
	if state == "" {
		state = join.StateActive.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coordinators
		(id, join_name, scenario, spec_hash, ir_version, engine_version, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.JoinName,
		rec.Scenario,
		rec.SpecHash,
		rec.IRVersion,
		rec.EngineVersion,
		state,
	)
	if err != nil {
		return fmt.Errorf("write coordinator: %w", err)
	}
	return nil
}

// WriteEvent inserts one trace event. A terminal event also moves the
// coordinator to its final state.
// Uses ON CONFLICT(coordinator_id, seq) DO NOTHING for idempotency.
func (s *Store) WriteEvent(ctx context.Context, ev join.TraceEvent) error {
	vals, err := marshalValues(ev.Values)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write event: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trace_events
		(coordinator_id, seq, kind, plan_id, source, notification, vals, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(coordinator_id, seq) DO NOTHING
	`,
		ev.CoordinatorID,
		ev.Seq,
		string(ev.Kind),
		ev.Plan,
		ev.Source,
		ev.Notification,
		vals,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	if state, ok := terminalState(ev.Kind); ok {
		if _, err := tx.ExecContext(ctx, `
			UPDATE coordinators SET state = ? WHERE id = ?
		`, state, ev.CoordinatorID); err != nil {
			return fmt.Errorf("write event: update state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write event: commit: %w", err)
	}
	return nil
}

// Record implements join.Recorder. Coordinators cannot handle recorder
// failures, so write errors are logged and dropped.
func (s *Store) Record(ev join.TraceEvent) {
	if err := s.WriteEvent(context.Background(), ev); err != nil {
		s.logger.Error("failed to record trace event",
			"coordinator", ev.CoordinatorID,
			"seq", ev.Seq,
			"kind", ev.Kind,
			"error", err,
		)
	}
}

func terminalState(kind join.EventKind) (string, bool) {
	switch kind {
	case join.EventFailed:
		return join.StateFailed.String(), true
	case join.EventCompleted:
		return join.StateCompleted.String(), true
	case join.EventCancelled:
		return join.StateCancelled.String(), true
	default:
		return "", false
	}
}
