package store

import (
	"context"
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// RunLog is everything recorded for one run, for replay and inspection.
type RunLog struct {
	Run       ir.Run
	Commands  []ir.Command
	Callbacks []ir.CallbackRecord

	LastCommandSeq  int64
	LastCallbackSeq int64
}

// CallbacksFor returns the callbacks caused by command seq, in delivery order.
func (l RunLog) CallbacksFor(seq int64) []ir.CallbackRecord {
	var out []ir.CallbackRecord
	for _, rec := range l.Callbacks {
		if rec.Command == seq {
			out = append(out, rec)
		}
	}
	return out
}

// Trace returns the callbacks without command attribution.
func (l RunLog) Trace() []ir.Callback {
	out := make([]ir.Callback, len(l.Callbacks))
	for i, rec := range l.Callbacks {
		out[i] = rec.Callback
	}
	return out
}

// ReadRunLog loads a run with its commands and callbacks.
// Returns sql.ErrNoRows (wrapped) if the run does not exist.
func (s *Store) ReadRunLog(ctx context.Context, runID string) (RunLog, error) {
	var log RunLog

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return log, fmt.Errorf("read run log: %w", err)
	}
	log.Run = run

	if log.Commands, err = s.ReadCommands(ctx, runID); err != nil {
		return log, fmt.Errorf("read run log: %w", err)
	}
	if log.Callbacks, err = s.ReadCallbacks(ctx, runID); err != nil {
		return log, fmt.Errorf("read run log: %w", err)
	}

	if n := len(log.Commands); n > 0 {
		log.LastCommandSeq = log.Commands[n-1].Seq
	}
	if n := len(log.Callbacks); n > 0 {
		log.LastCallbackSeq = log.Callbacks[n-1].Seq
	}
	return log, nil
}

// ListRunsForSchedule returns the IDs of runs recorded against a schedule
// hash, ordered by id.
func (s *Store) ListRunsForSchedule(ctx context.Context, scheduleHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE schedule_hash = ?
		ORDER BY id COLLATE BINARY ASC
	`, scheduleHash)
	if err != nil {
		return nil, fmt.Errorf("list runs for schedule: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}
