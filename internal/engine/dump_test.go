package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/testutil"
)

func TestWrite_Layout(t *testing.T) {
	rec := testutil.NewRecorder()
	s := sequentialPair(t, rec)
	_, err := s.AddExternal(7, "say", 1.5, false, 0.25, ir.PreviousBegin)
	require.NoError(t, err)
	addLeaf(t, s, rec, "mark", 0, false, 0, ir.PreviousEnd)

	var b strings.Builder
	require.NoError(t, s.Write(&b, 2))

	want := "" +
		"  pair:\n" +
		"    0.000 {\n" +
		"    0.000   a dur 1\n" +
		"    1.000   b dur 1\n" +
		"    2.000 }\n" +
		"    0.250 *say dur 1.5 (!oe)\n" +
		"    1.750 mark (!oe)\n"
	assert.Equal(t, want, b.String())
}

func TestWrite_PrecisionSetsDecimals(t *testing.T) {
	rec := testutil.NewRecorder()
	s := newTestScheduler(t, interval.NewArena(), "coarse", WithPrecision(10))
	addLeaf(t, s, rec, "x", 0.25, true, 1.26, ir.LevelBegin)

	var b strings.Builder
	require.NoError(t, s.Write(&b, 0))
	assert.Equal(t, "coarse:\n  1.3 x dur 0.25\n", b.String())
}

func TestWrite_NestedScheduleShowsNameAndDuration(t *testing.T) {
	arena := interval.NewArena()
	rec := testutil.NewRecorder()
	parent := newTestScheduler(t, arena, "parent")
	child := newTestScheduler(t, arena, "child")
	addLeaf(t, child, rec, "x", 2, true, 0, ir.PreviousEnd)
	_, err := parent.AddAction(child.Slot(), 0, ir.PreviousEnd)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, parent.Write(&b, 0))
	assert.Equal(t, "parent:\n  0.000 child dur 2\n", b.String())
}
