package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/compiler"
)

func TestLoadSchedules_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pair.cue", pairCUE)

	result, errs := LoadSchedules(path, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Schedules, 1)
	assert.Equal(t, 1, result.FileCount)
	assert.Equal(t, "pair", result.Schedules[0].Name)
	assert.Len(t, result.Schedules[0].Items, 2)
}

func TestLoadSchedules_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pair.cue", "package schedules\n\n"+pairCUE)
	writeFile(t, dir, "solo.cue", `package schedules

schedule: solo: items: [{kind: "action", name: "x", duration: 2}]
`)

	result, errs := LoadSchedules(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)

	var names []string
	for _, s := range result.Schedules {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"pair", "solo"}, names)
}

func TestLoadSchedules_NotFound(t *testing.T) {
	_, errs := LoadSchedules(filepath.Join(t.TempDir(), "missing.cue"), LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadSchedules_EmptyDirectory(t *testing.T) {
	_, errs := LoadSchedules(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadSchedules_CompileErrorHasCode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", invalidKindCUE)

	_, errs := LoadSchedules(path, LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, compiler.ErrUnknownItemKind, loadErr.Code)
	assert.True(t, loadErr.Pos.IsValid())
}

func TestSelectSchedules(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pair.cue", pairCUE)
	result, errs := LoadSchedules(path, LoadModeFailFast)
	require.Empty(t, errs)

	all, err := selectSchedules(result.Schedules, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	one, err := selectSchedules(result.Schedules, "pair")
	require.NoError(t, err)
	assert.Equal(t, "pair", one[0].Name)

	_, err = selectSchedules(result.Schedules, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schedule "nope" not found`)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field   string
		message string
		want    string
	}{
		{"name", "schedule name is required", compiler.ErrScheduleNameEmpty},
		{"items[0].name", "action name is required", compiler.ErrItemNameEmpty},
		{"precision", "must be positive", compiler.ErrInvalidPrecision},
		{"items[1].kind", `unknown kind "x"`, compiler.ErrUnknownItemKind},
		{"items[0].items[2].anchor", "unknown anchor", compiler.ErrUnknownAnchor},
		{"items[0].duration", "duration must not be negative", compiler.ErrNegativeDuration},
		{"items[0].duration", "group duration is derived from its items", compiler.ErrGroupDuration},
		{"items[0].items", "only groups may contain items", compiler.ErrChildrenOnLeaf},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field, tt.message))
		})
	}
}
