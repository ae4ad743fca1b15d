package store

import (
	"context"
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a run is a no-op.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	scheduleJSON, err := marshalSchedule(run.Schedule)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, schedule_name, schedule_hash, schedule, precision, engine_version, spec_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Schedule.Name,
		run.ScheduleHash,
		scheduleJSON,
		run.Precision,
		run.EngineVersion,
		run.SpecVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// AppendCommand records one playback request of a run.
// The run must exist (foreign key constraint). A duplicate seq is an error:
// the command log is append-only.
func (s *Store) AppendCommand(ctx context.Context, runID string, cmd ir.Command) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (run_id, seq, op, t)
		VALUES (?, ?, ?, ?)
	`, runID, cmd.Seq, cmd.Op.String(), cmd.T)
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	return nil
}

// AppendCallback records one delivered callback. The command it is
// attributed to must already be recorded.
func (s *Store) AppendCallback(ctx context.Context, runID string, rec ir.CallbackRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO callbacks
		(run_id, seq, command_seq, def, name, event, offset_ticks, external)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		rec.Seq,
		rec.Command,
		rec.Def,
		rec.Name,
		rec.Event.String(),
		int64(rec.Offset),
		boolToInt(rec.External),
	)
	if err != nil {
		return fmt.Errorf("append callback: %w", err)
	}
	return nil
}

// AppendCallbacks records a batch of callbacks atomically.
func (s *Store) AppendCallbacks(ctx context.Context, runID string, recs []ir.CallbackRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append callbacks: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO callbacks
		(run_id, seq, command_seq, def, name, event, offset_ticks, external)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append callbacks: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, runID, rec.Seq, rec.Command, rec.Def, rec.Name,
			rec.Event.String(), int64(rec.Offset), boolToInt(rec.External)); err != nil {
			return fmt.Errorf("append callbacks: seq %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append callbacks: commit: %w", err)
	}
	return nil
}
