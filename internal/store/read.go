package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schedule_hash, schedule, precision, engine_version, spec_version
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run ordered by id (UUIDv7 IDs sort by creation).
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_hash, schedule, precision, engine_version, spec_version
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCommands returns the commands of a run ordered by seq.
func (s *Store) ReadCommands(ctx context.Context, runID string) ([]ir.Command, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, t
		FROM commands
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	cmds := []ir.Command{}
	for rows.Next() {
		var cmd ir.Command
		var op string
		if err := rows.Scan(&cmd.Seq, &op, &cmd.T); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		if cmd.Op, err = parseEvent("op", op); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		cmds = append(cmds, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return cmds, nil
}

// ReadCallbacks returns the callbacks of a run in delivery order.
func (s *Store) ReadCallbacks(ctx context.Context, runID string) ([]ir.CallbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, command_seq, def, name, event, offset_ticks, external
		FROM callbacks
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query callbacks: %w", err)
	}
	defer rows.Close()

	recs := []ir.CallbackRecord{}
	for rows.Next() {
		var rec ir.CallbackRecord
		var event string
		var offset int64
		var external int
		if err := rows.Scan(&rec.Seq, &rec.Command, &rec.Def, &rec.Name, &event, &offset, &external); err != nil {
			return nil, fmt.Errorf("scan callback: %w", err)
		}
		if rec.Event, err = parseEvent("event", event); err != nil {
			return nil, fmt.Errorf("scan callback: %w", err)
		}
		rec.Offset = ir.Ticks(offset)
		rec.External = external != 0
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callbacks: %w", err)
	}
	return recs, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.Run, error) {
	var run ir.Run
	var scheduleJSON string
	err := row.Scan(&run.ID, &run.ScheduleHash, &scheduleJSON, &run.Precision, &run.EngineVersion, &run.SpecVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	if run.Schedule, err = unmarshalSchedule(scheduleJSON); err != nil {
		return run, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}
