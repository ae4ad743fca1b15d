package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sequence/internal/compiler"
	"github.com/roach88/sequence/internal/ir"
)

// LoadMode controls how errors are handled during schedule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the schedules loaded from a file or directory.
type LoadResult struct {
	Schedules []ir.ScheduleSpec
	FileCount int // Number of CUE files read
}

// LoadError represents an error that occurred during schedule loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchedules loads every schedule declared in a CUE file, or in all CUE
// files of a directory (which must form one CUE package).
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSchedules(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}}
	}

	if !info.IsDir() {
		specs, err := compiler.LoadFile(path)
		if err != nil {
			return nil, []error{convertCompileError(err, path)}
		}
		return &LoadResult{Schedules: specs, FileCount: 1}, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
	}

	insts := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(insts) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := insts[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(files)}
	errs := compileSchedules(value, result, mode)
	return result, errs
}

func compileSchedules(value cue.Value, result *LoadResult, mode LoadMode) []error {
	var errs []error

	schedules := value.LookupPath(cue.ParsePath("schedule"))
	if !schedules.Exists() {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: "no schedules declared"}}
	}
	iter, err := schedules.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating schedules: %v", err)}}
	}
	for iter.Next() {
		spec, err := compiler.CompileSchedule(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "schedule."+iter.Label()))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		result.Schedules = append(result.Schedules, *spec)
	}
	return errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// selectSchedules filters loaded schedules by name. An empty name keeps all.
func selectSchedules(specs []ir.ScheduleSpec, name string) ([]ir.ScheduleSpec, error) {
	if name == "" {
		return specs, nil
	}
	for _, spec := range specs {
		if spec.Name == name {
			return []ir.ScheduleSpec{spec}, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schedule %q not found", name)}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, compileErr.Message),
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Database open or query failed
	ErrCodePlayback    = "E009" // Playback failed
)

// MapFieldToErrorCode maps a compiler error to a validation code, using the
// last element of its field path.
func MapFieldToErrorCode(field, message string) string {
	last := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		last = field[i+1:]
	}
	switch last {
	case "name":
		if field == "name" {
			return compiler.ErrScheduleNameEmpty
		}
		return compiler.ErrItemNameEmpty
	case "precision":
		return compiler.ErrInvalidPrecision
	case "kind":
		return compiler.ErrUnknownItemKind
	case "anchor":
		return compiler.ErrUnknownAnchor
	case "duration":
		if strings.Contains(message, "group") {
			return compiler.ErrGroupDuration
		}
		return compiler.ErrNegativeDuration
	case "items":
		if field != "items" {
			return compiler.ErrChildrenOnLeaf
		}
	}
	return ErrCodeGeneric
}
