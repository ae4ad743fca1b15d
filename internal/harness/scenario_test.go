package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One action"
schedule:
  name: one
  items:
    - kind: action
      name: a
      duration: 1
steps:
  - op: initialize
assertions:
  - type: active
    names: [a]
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario), "")
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.NotNil(t, s.Schedule)
	assert.Equal(t, "one", s.Schedule.Name)
	assert.Equal(t, []Step{{Op: "initialize"}}, s.Steps)
	assert.Equal(t, []string{"a"}, s.Assertions[0].Names)
}

func TestLoadScenario_ResolvesFileRelativeToScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/external_greeting.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "schedules", "greeting.cue"), s.File)

	spec, err := s.ResolveSchedule()
	require.NoError(t, err)
	assert.Equal(t, "greeting", spec.Name)
	assert.Len(t, spec.Items, 2)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: y\n",
			want: "name is required",
		},
		{
			name: "missing schedule",
			yaml: "name: x\ndescription: y\nsteps: [{op: initialize}]\n",
			want: "one of schedule or file is required",
		},
		{
			name: "schedule and file",
			yaml: "name: x\ndescription: y\nfile: a.cue\nschedule: {name: s, items: []}\n",
			want: "mutually exclusive",
		},
		{
			name: "nan precision",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nprecision: .nan\nsteps: [{op: finalize}]\nassertions: [{type: active}]\n",
			want: "precision must be positive and finite",
		},
		{
			name: "unknown op",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nsteps: [{op: rewind}]\nassertions: [{type: active}]\n",
			want: "steps[0]",
		},
		{
			name: "no assertions",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nsteps: [{op: finalize}]\n",
			want: "assertions list is required",
		},
		{
			name: "step out of range",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nsteps: [{op: finalize}]\nassertions: [{type: no_callbacks, step: 3}]\n",
			want: "step 3 out of range",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nsteps: [{op: finalize}]\nassertions: [{type: final_state}]\n",
			want: "unknown assertion type",
		},
		{
			name: "bad event filter",
			yaml: "name: x\ndescription: y\nschedule: {name: s, items: []}\nsteps: [{op: finalize}]\nassertions: [{type: callback_count, name: a, event: jump}]\n",
			want: "assertions[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_ScheduleFileNotFound(t *testing.T) {
	data := "name: x\ndescription: y\nfile: missing.cue\nsteps: [{op: finalize}]\nassertions: [{type: active}]\n"
	_, err := ParseScenario([]byte(data), t.TempDir())
	assert.ErrorContains(t, err, "schedule file not found")
}

func TestResolveSchedule_SelectsByName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two.cue")
	src := `schedule: first: items: [{kind: "action", name: "a", duration: 1}]
schedule: second: items: [{kind: "action", name: "b", duration: 2}]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	s := &Scenario{File: path}
	_, err := s.ResolveSchedule()
	assert.ErrorContains(t, err, "schedule_name is required")

	s.ScheduleName = "second"
	s.Precision = 30
	spec, err := s.ResolveSchedule()
	require.NoError(t, err)
	assert.Equal(t, "second", spec.Name)
	assert.Equal(t, 30.0, spec.Precision)

	s.ScheduleName = "third"
	_, err = s.ResolveSchedule()
	assert.ErrorContains(t, err, `schedule "third" not found`)
}
