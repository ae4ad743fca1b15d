package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/ir"
)

func TestLoadFile_Testdata(t *testing.T) {
	specs, err := LoadFile("testdata/intro.cue")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	intro := specs[0]
	assert.Equal(t, "intro", intro.Name)
	assert.Equal(t, 1000.0, intro.Precision)
	require.Len(t, intro.Items, 2)

	group := intro.Items[0]
	assert.Equal(t, ir.ItemGroup, group.Kind)
	require.Len(t, group.Items, 2)
	say := group.Items[1]
	assert.Equal(t, ir.ItemExternal, say.Kind)
	assert.Equal(t, 7, say.Handle)
	assert.Equal(t, 2.0, say.Duration)
	assert.Equal(t, 0.5, say.At)
	assert.Equal(t, "previous_begin", say.Anchor)
	assert.True(t, say.IsOpenEnded())

	assert.False(t, intro.Items[1].IsOpenEnded())

	outro := specs[1]
	assert.Equal(t, "outro", outro.Name)
	assert.Equal(t, 0.0, outro.Precision, "unset precision uses the scheduler default")
	assert.Equal(t, "level_begin", outro.Items[1].Anchor)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.cue")
	assert.ErrorContains(t, err, "failed to read schedule file")
}

func TestLoadBytes_NoSchedules(t *testing.T) {
	_, err := LoadBytes("empty.cue", []byte(`other: 1`))

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "schedule", ce.Field)
}

func TestLoadBytes_SyntaxError(t *testing.T) {
	_, err := LoadBytes("broken.cue", []byte(`schedule: {`))
	require.Error(t, err)

	var ce *CompileError
	if errors.As(err, &ce) {
		assert.Equal(t, "broken.cue", ce.Pos.Filename())
	}
}

func TestCompileSchedule_NameOverride(t *testing.T) {
	v := cuecontext.New().CompileString(`
		schedule: s1: {
			name: "custom"
			items: []
		}
	`)
	require.NoError(t, v.Err())

	spec, err := CompileSchedule(v.LookupPath(cue.ParsePath("schedule.s1")))
	require.NoError(t, err)
	assert.Equal(t, "custom", spec.Name)
	assert.Empty(t, spec.Items)
}

func TestCompileSchedule_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing items", `schedule: s: {precision: 10}`, "items"},
		{"bad precision", `schedule: s: {precision: 0, items: []}`, "precision"},
		{"missing kind", `schedule: s: {items: [{name: "x"}]}`, "items[0].kind"},
		{"unknown kind", `schedule: s: {items: [{kind: "pause", name: "x"}]}`, "items[0].kind"},
		{"unknown anchor", `schedule: s: {items: [{kind: "action", name: "x", anchor: "soon"}]}`, "items[0].anchor"},
		{"nested leaf children", `schedule: s: {items: [{kind: "group", items: [{kind: "action", name: "x", items: [{kind: "action", name: "y"}]}]}]}`, "items[0].items[0].items"},
		{"negative duration", `schedule: s: {items: [{kind: "external", name: "x", duration: -1}]}`, "items[0].duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("test.cue", []byte(tt.src))

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "items", Message: "items is required"}
	assert.Equal(t, "items: items is required", err.Error())
}
