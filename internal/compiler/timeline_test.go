package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/ir"
)

var q1000 = ir.NewQuantizer(1000)

// durations maps definition index to duration; missing entries last one unit.
func durations(d map[int]float64) DurationFunc {
	return func(n int, _ *ir.Def) float64 {
		if v, ok := d[n]; ok {
			return v
		}
		return 1
	}
}

func push(rel float64, to ir.RelativeStart) ir.Def {
	return ir.Def{Type: ir.DefPushLevel, RelTime: rel, RelTo: to}
}

func pop() ir.Def { return ir.Def{Type: ir.DefPopLevel} }

func native(rel float64, to ir.RelativeStart) ir.Def {
	return ir.Def{Type: ir.DefNative, Slot: 1, RelTime: rel, RelTo: to}
}

type ev struct {
	Time ir.Ticks
	Def  int
	Type ir.PlaybackEventType
}

func flatten(tl *Timeline) []ev {
	out := make([]ev, len(tl.Events))
	for i, e := range tl.Events {
		out[i] = ev{e.Time, e.Def, e.Type}
	}
	return out
}

func TestCompile_Anchors(t *testing.T) {
	defs := []ir.Def{
		push(0.5, ir.PreviousEnd),      // 0: level begins at 0.5
		native(0, ir.LevelBegin),       // 1: [0.5, 1.5]
		native(0.25, ir.PreviousBegin), // 2: [0.75, 1.75]
		native(0.1, ir.PreviousEnd),    // 3: [1.85, 2.85]
		pop(),                          // 4
		native(-1, ir.PreviousBegin),   // 5: group began at 0.5 -> [-0.5, 0.5]
	}

	tl, err := Compile(defs, q1000, durations(nil))
	require.NoError(t, err)

	assert.Equal(t, []ir.Ticks{500, 500, 750, 1850, 2850, -500}, tl.BeginTimes)
	assert.Equal(t, ir.Ticks(2850), tl.End)
	assert.Equal(t, 2.85, tl.Duration)
	assert.Empty(t, tl.Warnings)

	assert.Equal(t, []ev{
		{-500, 5, ir.PlaybackBegin},
		{500, 1, ir.PlaybackBegin},
		{500, 5, ir.PlaybackEnd},
		{750, 2, ir.PlaybackBegin},
		{1500, 1, ir.PlaybackEnd},
		{1750, 2, ir.PlaybackEnd},
		{1850, 3, ir.PlaybackBegin},
		{2850, 3, ir.PlaybackEnd},
	}, flatten(tl))
}

func TestCompile_EventStructure(t *testing.T) {
	defs := []ir.Def{native(0, ir.PreviousEnd), native(0, ir.PreviousEnd)}
	tl, err := Compile(defs, q1000, durations(map[int]float64{1: 0}))
	require.NoError(t, err)

	require.Len(t, tl.Events, 3)
	begin, end, instant := tl.Events[0], tl.Events[1], tl.Events[2]
	assert.Same(t, begin, begin.Begin)
	assert.Same(t, begin, end.Begin)
	assert.Equal(t, ir.PlaybackInstant, instant.Type)
	assert.Same(t, instant, instant.Begin)
	for i, e := range tl.Events {
		assert.Equal(t, i, e.Pos)
	}
}

func TestCompile_TiesKeepDeclarationOrder(t *testing.T) {
	defs := []ir.Def{
		native(0, ir.LevelBegin),
		native(0, ir.LevelBegin),
		native(0, ir.LevelBegin),
	}
	tl, err := Compile(defs, q1000, durations(map[int]float64{1: 0}))
	require.NoError(t, err)

	assert.Equal(t, []ev{
		{0, 0, ir.PlaybackBegin},
		{0, 1, ir.PlaybackInstant},
		{0, 2, ir.PlaybackBegin},
		{1000, 0, ir.PlaybackEnd},
		{1000, 2, ir.PlaybackEnd},
	}, flatten(tl))
}

func TestCompile_SubTickDurationIsInstant(t *testing.T) {
	tl, err := Compile([]ir.Def{native(0, ir.PreviousEnd)}, q1000, durations(map[int]float64{0: 0.0004}))
	require.NoError(t, err)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, ir.PlaybackInstant, tl.Events[0].Type)
}

func TestCompile_EmptyGroupEndsAtItsBegin(t *testing.T) {
	defs := []ir.Def{push(2, ir.PreviousEnd), pop(), native(0, ir.PreviousEnd)}
	tl, err := Compile(defs, q1000, durations(nil))
	require.NoError(t, err)

	assert.Equal(t, []ir.Ticks{2000, 2000, 2000}, tl.BeginTimes)
	assert.Equal(t, 3.0, tl.Duration)
}

func TestCompile_MissingPopWarns(t *testing.T) {
	defs := []ir.Def{push(0, ir.PreviousEnd), native(0, ir.LevelBegin)}
	tl, err := Compile(defs, q1000, durations(nil))
	require.NoError(t, err)

	require.Len(t, tl.Warnings, 1)
	assert.Equal(t, WarnUnbalancedLevels, tl.Warnings[0].Code)
	assert.Equal(t, 1.0, tl.Duration)
	assert.Len(t, tl.Events, 2)
}

func TestCompile_ExtraPopStopsWalk(t *testing.T) {
	defs := []ir.Def{native(0, ir.PreviousEnd), pop(), native(0, ir.PreviousEnd)}
	tl, err := Compile(defs, q1000, durations(nil))
	require.NoError(t, err)

	require.Len(t, tl.Warnings, 1)
	assert.Equal(t, WarnUnbalancedLevels, tl.Warnings[0].Code)
	assert.Len(t, tl.Events, 2, "definitions after the stray pop are not compiled")
	assert.Equal(t, 1.0, tl.Duration)
}

func TestCompile_NegativeDurationClamped(t *testing.T) {
	tl, err := Compile([]ir.Def{native(0, ir.PreviousEnd)}, q1000, durations(map[int]float64{0: -2}))
	require.NoError(t, err)

	require.Len(t, tl.Warnings, 1)
	assert.Equal(t, WarnNegativeDuration, tl.Warnings[0].Code)
	assert.Equal(t, 0, tl.Warnings[0].Def)
	assert.Equal(t, ir.PlaybackInstant, tl.Events[0].Type)
}

func TestCompile_UnresolvedAnchor(t *testing.T) {
	_, err := Compile([]ir.Def{native(0, ir.RelativeStart(7))}, q1000, durations(nil))
	assert.ErrorContains(t, err, "unresolved anchor")
}

func TestCompile_DoesNotModifyDefs(t *testing.T) {
	defs := []ir.Def{native(1, ir.PreviousEnd)}
	_, err := Compile(defs, q1000, durations(nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Ticks(0), defs[0].ActualBeginTime)
}

func TestWarning_String(t *testing.T) {
	assert.Equal(t, "[W001] pushes don't match pops", Warning{Code: WarnUnbalancedLevels, Message: "pushes don't match pops", Def: -1}.String())
	assert.Equal(t, "[W002] def 3: negative", Warning{Code: WarnNegativeDuration, Message: "negative", Def: 3}.String())
}
