package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sequence/internal/harness"
	"github.com/roach88/sequence/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Schedule string // optional - runs recorded against this schedule hash
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []*harness.ReplayReport `json:"runs"`
	TotalRuns        int                     `json:"total_runs"`
	AllDeterministic bool                    `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Re-execute the commands of recorded runs against their stored schedules
and verify that the same callbacks are delivered in the same order.

Exit codes:
  0 - All runs replayed identically
  1 - A replay diverged from its recording
  2 - Command error (database not found, etc.)

Examples:
  sequence replay --db ./runs.db
  sequence replay --db ./runs.db --run 0192f3c4-...
  sequence replay --db ./runs.db --schedule 3f9a...
  sequence replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to the configured database)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "replay only runs recorded against this schedule hash")
	cmd.MarkFlagsMutuallyExclusive("run", "schedule")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := openDatabase(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runIDs []string
	switch {
	case opts.RunID != "":
		runIDs = []string{opts.RunID}
	case opts.Schedule != "":
		runIDs, err = st.ListRunsForSchedule(ctx, opts.Schedule)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	default:
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, run := range runs {
			runIDs = append(runIDs, run.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]*harness.ReplayReport, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}

	if len(runIDs) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	for _, id := range runIDs {
		formatter.VerboseLog("Replaying run: %s", id)
		report, err := harness.Replay(ctx, st, id, harness.WithLogger(opts.logger(formatter)))
		if errors.Is(err, sql.ErrNoRows) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", id), err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}
		result.Runs = append(result.Runs, report)
		if !report.Match {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// openDatabase opens the --db path or the configured database.
func openDatabase(opts *RootOptions, path string) (*store.Store, error) {
	db := opts.database(path)
	if db == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set database in the config file")
	}
	st, err := store.Open(db)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := formatter.encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Match {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Callbacks: %d recorded, %d replayed\n", run.Recorded, run.Replayed)

		if verbose {
			fmt.Fprintf(w, "  Schedule hash: %s\n", run.ScheduleHash)
			fmt.Fprintf(w, "  Recorded trace: %s\n", run.RecordedHash)
			fmt.Fprintf(w, "  Replayed trace: %s\n", run.ReplayedHash)
		}

		if !run.ScheduleHashOK {
			fmt.Fprintln(w, "  Warning: schedule hash changed since recording")
		}
		if run.Divergence >= 0 {
			fmt.Fprintf(w, "  Warning: diverged at callback %d\n", run.Divergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
