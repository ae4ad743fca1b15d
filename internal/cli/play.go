package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sequence/internal/harness"
	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Schedule  string
	Steps     []string // "op" or "op:t"
	Database  string
	Precision float64
}

// PlayResult is the output of the play command.
type PlayResult struct {
	Schedule string `json:"schedule"`
	*harness.Result
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <path>",
		Short: "Play a schedule and print the callbacks delivered",
		Long: `Play a CUE schedule with a list of playback commands.

Each --step is an operation, optionally with a time: initialize:T, step:T,
finalize, instant, reverse_initialize:T, reverse_instant, reverse_finalize.
Native actions are placeholders; external actions are serviced by a
simulated host. With --db the run is recorded for replay and trace.

Examples:
  sequence play intro.cue --step initialize:0 --step step:1.5 --step finalize
  sequence play ./schedules -s intro --step instant --db runs.db
  sequence play intro.cue --step reverse_initialize:2,reverse_finalize --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schedule, "schedule", "s", "", "schedule to play (required if the path declares several)")
	cmd.Flags().StringSliceVar(&opts.Steps, "step", []string{"initialize:0", "finalize"}, "playback command op[:t], repeatable")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run into this SQLite database")
	cmd.Flags().Float64Var(&opts.Precision, "precision", 0, "override the schedule precision (ticks per time unit)")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	steps, err := ParseSteps(opts.Steps)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --step", err)
	}

	loadResult, loadErrors := LoadSchedules(path, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, loadErrors)
	}
	specs, err := selectSchedules(loadResult.Schedules, opts.Schedule)
	if err != nil {
		return outputLoadErrors(formatter, []error{err})
	}
	if len(specs) != 1 {
		msg := fmt.Sprintf("%d schedules declared, use --schedule to pick one", len(specs))
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	spec := specs[0]
	if opts.Precision != 0 {
		if !ir.ValidPrecision(opts.Precision) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --precision %v: must be positive and finite", opts.Precision))
		}
		spec.Precision = opts.Precision
	}

	playOpts := []harness.Option{harness.WithLogger(opts.logger(formatter))}
	if db := opts.database(opts.Database); db != "" {
		st, err := store.Open(db)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		playOpts = append(playOpts, harness.WithStore(st))
	}

	result, err := harness.Play(ctx, spec, steps, playOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodePlayback, err.Error(), nil)
		return WrapExitError(ExitFailure, "playback failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(PlayResult{Schedule: spec.Name, Result: result})
	}
	return outputPlayText(cmd, spec.Name, steps, result)
}

// ParseSteps parses "op" and "op:t" playback commands.
func ParseSteps(raw []string) ([]harness.Step, error) {
	steps := make([]harness.Step, 0, len(raw))
	for _, s := range raw {
		op, t, hasT := strings.Cut(strings.TrimSpace(s), ":")
		if _, err := ir.ParseEventType(op); err != nil {
			return nil, fmt.Errorf("step %q: %w", s, err)
		}
		step := harness.Step{Op: op}
		if hasT {
			v, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return nil, fmt.Errorf("step %q: invalid time: %w", s, err)
			}
			step.T = v
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func outputPlayText(cmd *cobra.Command, name string, steps []harness.Step, result *harness.Result) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Schedule: %s (duration %g)\n", name, result.Duration)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	for i, step := range steps {
		fmt.Fprintf(w, "\n%s", step.Op)
		switch step.Op {
		case "initialize", "step", "reverse_initialize":
			fmt.Fprintf(w, " %g", step.T)
		}
		fmt.Fprintln(w)
		for _, e := range result.StepTrace(i) {
			fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e)
		}
	}

	fmt.Fprintf(w, "\nActive: %s\n", strings.Join(result.Active, ", "))
	return nil
}
