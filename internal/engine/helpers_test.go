package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, arena *interval.Arena, name string, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithPrecision(1000), WithLogger(quietLogger())}, opts...)
	return New(arena, name, opts...)
}

// addLeaf registers a recorded leaf and schedules it, leaving the
// scheduler as its only owner.
func addLeaf(t *testing.T, s *Scheduler, rec *testutil.Recorder, name string, duration float64,
	openEnded bool, relTime float64, relTo ir.RelativeStart) int {
	t.Helper()
	id := s.arena.Register(rec.Interval(name, duration, openEnded))
	n, err := s.AddAction(id, relTime, relTo)
	require.NoError(t, err)
	require.NoError(t, s.arena.Release(id))
	return n
}

// catchFault runs fn and returns the *Fault it panicked with, or nil.
func catchFault(fn func()) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			fault = f
		}
	}()
	fn()
	return nil
}

// drain plays the host: it services the queue, invoking every external
// event through handle.
func drain(t *testing.T, s *Scheduler, handle func(ExternalEvent)) {
	t.Helper()
	for s.ServiceQueue() {
		ev, ok := s.PendingEvent()
		require.True(t, ok)
		if handle != nil {
			handle(ev)
		}
		require.NoError(t, s.PopEvent())
	}
}

// sequentialPair builds a group holding a then b, each lasting one unit,
// b starting where a ends.
func sequentialPair(t *testing.T, rec *testutil.Recorder) *Scheduler {
	t.Helper()
	s := newTestScheduler(t, interval.NewArena(), "pair")
	_, err := s.PushLevel(0, ir.PreviousEnd)
	require.NoError(t, err)
	addLeaf(t, s, rec, "a", 1.0, true, 0, ir.LevelBegin)
	addLeaf(t, s, rec, "b", 1.0, true, 0, ir.PreviousEnd)
	_, err = s.PopLevel()
	require.NoError(t, err)
	return s
}
