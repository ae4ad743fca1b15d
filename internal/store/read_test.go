package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/ir"
)

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-b")
	writeTestRun(t, s, "run-a")
	writeTestRun(t, s, "run-c")

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Equal(t, "run-c", runs[2].ID)
}

func TestReadCommands_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	require.NoError(t, s.AppendCommand(ctx, "run-1", ir.Command{Seq: 2, Op: ir.EventStep, T: 0.25}))
	require.NoError(t, s.AppendCommand(ctx, "run-1", ir.Command{Seq: 1, Op: ir.EventInitialize}))
	require.NoError(t, s.AppendCommand(ctx, "run-1", ir.Command{Seq: 3, Op: ir.EventReverseFinalize}))

	cmds, err := s.ReadCommands(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []ir.Command{
		{Seq: 1, Op: ir.EventInitialize},
		{Seq: 2, Op: ir.EventStep, T: 0.25},
		{Seq: 3, Op: ir.EventReverseFinalize},
	}, cmds)
}

func TestReadCallbacks_PreservesFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")
	require.NoError(t, s.AppendCommand(ctx, "run-1", ir.Command{Seq: 1, Op: ir.EventInitialize}))

	ext := callbackRecord(1, 2, "say", ir.EventInstant, 0)
	ext.Def = 3
	ext.External = true
	require.NoError(t, s.AppendCallbacks(ctx, "run-1", []ir.CallbackRecord{
		callbackRecord(1, 1, "fade", ir.EventInitialize, 250),
		ext,
	}))

	got, err := s.ReadCallbacks(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, callbackRecord(1, 1, "fade", ir.EventInitialize, 250), got[0])
	assert.Equal(t, ext, got[1])
}

func TestReadCallbacks_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadCallbacks(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
