package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/sequence/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with a one-action schedule.
func createTestRun(id string) ir.Run {
	return ir.Run{
		ID: id,
		Schedule: ir.ScheduleSpec{
			Name:      "intro",
			Precision: 1000,
			Items: []ir.ItemSpec{
				{Kind: ir.ItemAction, Name: "fade", Duration: 1.5},
			},
		},
		ScheduleHash:  "hash-" + id,
		Precision:     1000,
		EngineVersion: ir.EngineVersion,
		SpecVersion:   ir.SpecVersion,
	}
}

// writeTestRun writes a run and fails the test on error.
func writeTestRun(t *testing.T, s *Store, id string) ir.Run {
	t.Helper()
	run := createTestRun(id)
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun(%s) failed: %v", id, err)
	}
	return run
}

func callbackRecord(cmd, seq int64, name string, event ir.EventType, offset ir.Ticks) ir.CallbackRecord {
	return ir.CallbackRecord{
		Command: cmd,
		Callback: ir.Callback{
			Seq:    seq,
			Def:    1,
			Name:   name,
			Event:  event,
			Offset: offset,
		},
	}
}
