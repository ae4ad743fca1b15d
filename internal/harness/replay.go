package harness

import (
	"context"
	"fmt"

	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/store"
)

// ReplayReport compares a recorded run with a fresh replay of its commands.
type ReplayReport struct {
	RunID string `json:"run_id"`

	// Match is true if the replay reproduced the recorded callbacks exactly
	// and the schedule hash is unchanged.
	Match bool `json:"match"`

	ScheduleHash   string `json:"schedule_hash"`
	ScheduleHashOK bool   `json:"schedule_hash_ok"`

	RecordedHash string `json:"recorded_hash"`
	ReplayedHash string `json:"replayed_hash"`

	Recorded int `json:"recorded"`
	Replayed int `json:"replayed"`

	// Divergence is the index of the first differing callback, or -1.
	Divergence int `json:"divergence"`
}

// Replay re-executes the commands of a recorded run against its stored
// schedule and compares the callbacks delivered with those recorded.
func Replay(ctx context.Context, st *store.Store, runID string, opts ...Option) (*ReplayReport, error) {
	log, err := st.ReadRunLog(ctx, runID)
	if err != nil {
		return nil, err
	}

	spec := log.Run.Schedule
	spec.Precision = log.Run.Precision

	steps := make([]Step, len(log.Commands))
	for i, cmd := range log.Commands {
		steps[i] = Step{Op: cmd.Op.String(), T: cmd.T}
	}

	// Replay must not record: drop any store the caller configured.
	opts = append(opts, WithStore(nil))
	result, err := Play(ctx, spec, steps, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	recorded := log.Trace()
	replayed := make([]ir.Callback, len(result.Trace))
	for i, e := range result.Trace {
		event, err := ir.ParseEventType(e.Event)
		if err != nil {
			return nil, err
		}
		replayed[i] = ir.Callback{
			Seq:      e.Seq,
			Def:      e.Def,
			Name:     e.Name,
			Event:    event,
			Offset:   ir.Ticks(e.Offset),
			External: e.External,
		}
	}

	report := &ReplayReport{
		RunID:          runID,
		ScheduleHash:   log.Run.ScheduleHash,
		ScheduleHashOK: result.ScheduleHash == log.Run.ScheduleHash,
		Recorded:       len(recorded),
		Replayed:       len(replayed),
		Divergence:     firstDivergence(recorded, replayed),
	}
	if report.RecordedHash, err = ir.TraceHash(recorded); err != nil {
		return nil, err
	}
	if report.ReplayedHash, err = ir.TraceHash(replayed); err != nil {
		return nil, err
	}
	report.Match = report.ScheduleHashOK && report.RecordedHash == report.ReplayedHash
	return report, nil
}

func firstDivergence(a, b []ir.Callback) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
