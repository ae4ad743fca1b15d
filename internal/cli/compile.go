package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sequence/internal/compiler"
	"github.com/roach88/sequence/internal/engine"
	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Schedule string // compile one schedule only
}

// CompiledEvent is one playback event of a compiled timeline.
type CompiledEvent struct {
	Pos  int     `json:"pos"`
	Time float64 `json:"time"`
	Def  int     `json:"def"`
	Name string  `json:"name,omitempty"`
	Type string  `json:"type"`
}

// CompiledSchedule is the compile output for one schedule.
type CompiledSchedule struct {
	Name      string             `json:"name"`
	Hash      string             `json:"hash"`
	Precision float64            `json:"precision"`
	Duration  float64            `json:"duration"`
	Defs      int                `json:"defs"`
	Events    []CompiledEvent    `json:"events"`
	Warnings  []compiler.Warning `json:"warnings,omitempty"`
	Dump      string             `json:"dump"`
}

// CompilationResult holds every compiled schedule.
type CompilationResult struct {
	Schedules []CompiledSchedule `json:"schedules"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile CUE schedules to timelines",
		Long: `Compile CUE schedules into flat, time-sorted playback timelines.

The path may be a single .cue file or a directory forming one CUE package.
Text output is the schedule dump: every definition with its resolved begin
time, groups indented. JSON output adds the event list and schedule hash.

Examples:
  sequence compile ./schedules/intro.cue
  sequence compile ./schedules --schedule intro --format json
  sequence compile ./schedules -o timelines.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&opts.Schedule, "schedule", "s", "", "compile only the named schedule")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadSchedules(path, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	specs, err := selectSchedules(loadResult.Schedules, opts.Schedule)
	if err != nil {
		return outputLoadErrors(formatter, []error{err})
	}

	logger := opts.logger(formatter)
	result := &CompilationResult{Schedules: make([]CompiledSchedule, 0, len(specs))}
	for _, spec := range specs {
		formatter.VerboseLog("Compiling schedule: %s", spec.Name)
		compiled, err := compileSchedule(spec, logger)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "compilation failed", err)
		}
		result.Schedules = append(result.Schedules, compiled)
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, s := range result.Schedules {
		fmt.Fprint(w, s.Dump)
		fmt.Fprintf(w, "  duration %g, %d events\n", s.Duration, len(s.Events))
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "  warning %s\n", warn)
		}
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Output written to: %s\n", opts.Output)
	}
	return nil
}

// compileSchedule builds a scheduler for spec with placeholder leaves and
// captures its compiled timeline.
func compileSchedule(spec ir.ScheduleSpec, logger *slog.Logger) (CompiledSchedule, error) {
	arena := interval.NewArena()
	sched, err := engine.NewFromSpec(arena, spec, engine.FuncFactory(nil), engine.WithLogger(logger))
	if err != nil {
		return CompiledSchedule{}, err
	}
	defer sched.Close()

	var dump bytes.Buffer
	if err := sched.Write(&dump, 0); err != nil {
		return CompiledSchedule{}, err
	}

	q := ir.NewQuantizer(sched.Precision())
	hash, err := ir.ScheduleHash(spec, q)
	if err != nil {
		return CompiledSchedule{}, err
	}

	out := CompiledSchedule{
		Name:      spec.Name,
		Hash:      hash,
		Precision: sched.Precision(),
		Duration:  sched.Duration(),
		Defs:      sched.NumDefs(),
		Warnings:  sched.Warnings(),
		Dump:      dump.String(),
	}
	for _, ev := range sched.Events() {
		out.Events = append(out.Events, CompiledEvent{
			Pos:  ev.Pos,
			Time: q.Time(ev.Time),
			Def:  ev.Def,
			Name: sched.DefName(ev.Def),
			Type: ev.Type.String(),
		})
	}
	return out, nil
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(result *CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// outputLoadErrors reports load or compile errors and returns the exit error.
// Missing paths are command errors; everything else is a validation failure.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	code := ExitFailure
	var details []string
	for _, err := range errs {
		details = append(details, err.Error())
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeNotFound {
			code = ExitCommandError
		}
	}

	first := errs[0]
	errCode := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(first, &loadErr) {
		errCode = loadErr.Code
	}

	if formatter.Format == "json" {
		_ = formatter.Error(errCode, first.Error(), details)
	} else {
		for _, d := range details {
			fmt.Fprintf(formatter.Writer, "Error: %s\n", d)
		}
	}
	return WrapExitError(code, fmt.Sprintf("%d error(s)", len(errs)), first)
}
