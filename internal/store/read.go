package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rendezvous/internal/join"
)

// ErrCoordinatorNotFound is returned when no coordinator has the given id.
var ErrCoordinatorNotFound = errors.New("coordinator not found")

// ReadCoordinator returns one coordinator record.
func (s *Store) ReadCoordinator(ctx context.Context, id string) (CoordinatorRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, join_name, scenario, spec_hash, ir_version, engine_version, state
		FROM coordinators
		WHERE id = ?
	`, id)

	rec, err := scanCoordinator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CoordinatorRecord{}, fmt.Errorf("%w: %s", ErrCoordinatorNotFound, id)
	}
	return rec, err
}

// ListCoordinators returns every coordinator, ordered by id.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListCoordinators(ctx context.Context) ([]CoordinatorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, join_name, scenario, spec_hash, ir_version, engine_version, state
		FROM coordinators
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query coordinators: %w", err)
	}
	defer rows.Close()

	records := []CoordinatorRecord{}
	for rows.Next() {
		rec, err := scanCoordinator(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coordinators: %w", err)
	}
	return records, nil
}

// ReadTrace returns the trace of one coordinator.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC.
//
// Returns an empty slice (not nil) if no events exist for the coordinator.
func (s *Store) ReadTrace(ctx context.Context, coordinatorID string) ([]join.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT coordinator_id, seq, kind, plan_id, source, notification, vals, error
		FROM trace_events
		WHERE coordinator_id = ?
		ORDER BY seq ASC, id ASC
	`, coordinatorID)
	if err != nil {
		return nil, fmt.Errorf("query trace events: %w", err)
	}
	defer rows.Close()

	events := []join.TraceEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace events: %w", err)
	}
	return events, nil
}

// CountEvents returns how many events of kind a coordinator recorded. An
// empty kind counts every event.
func (s *Store) CountEvents(ctx context.Context, coordinatorID string, kind join.EventKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trace_events
		WHERE coordinator_id = ? AND (? = '' OR kind = ?)
	`, coordinatorID, string(kind), string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCoordinator(row scanner) (CoordinatorRecord, error) {
	var rec CoordinatorRecord
	err := row.Scan(
		&rec.ID,
		&rec.JoinName,
		&rec.Scenario,
		&rec.SpecHash,
		&rec.IRVersion,
		&rec.EngineVersion,
		&rec.State,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan coordinator: %w", err)
	}
	return rec, nil
}

func scanEvent(row scanner) (join.TraceEvent, error) {
	var (
		ev   join.TraceEvent
		kind string
		vals string
	)
	if err := row.Scan(
		&ev.CoordinatorID,
		&ev.Seq,
		&kind,
		&ev.Plan,
		&ev.Source,
		&ev.Notification,
		&vals,
		&ev.Error,
	); err != nil {
		return ev, fmt.Errorf("scan trace event: %w", err)
	}
	ev.Kind = join.EventKind(kind)

	values, err := unmarshalValues(vals)
	if err != nil {
		return ev, err
	}
	ev.Values = values
	return ev, nil
}
