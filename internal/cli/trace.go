package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Action   string // optional - filter to specific action
}

// TraceCommand is one recorded playback command and the callbacks it caused.
type TraceCommand struct {
	Seq       int64         `json:"seq"`
	Op        string        `json:"op"`
	T         float64       `json:"t"`
	Callbacks []ir.Callback `json:"callbacks"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID        string         `json:"run_id"`
	Schedule     string         `json:"schedule"`
	ScheduleHash string         `json:"schedule_hash"`
	Precision    float64        `json:"precision"`
	Commands     []TraceCommand `json:"commands"`
	Stats        TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Commands  int `json:"commands"`
	Callbacks int `json:"callbacks"`
	External  int `json:"external"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded callbacks of a run",
		Long: `Show every playback command of a recorded run together with the
callbacks it delivered, in delivery order.

Examples:
  sequence trace --db ./runs.db --run 0192f3c4-...
  sequence trace --db ./runs.db --run 0192f3c4-... --action fade_in
  sequence trace --db ./runs.db --run 0192f3c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to the configured database)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Action, "action", "", "filter to callbacks of one action")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := openDatabase(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	log, err := st.ReadRunLog(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", opts.RunID), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	result := buildTrace(log, opts.Action)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// buildTrace groups callbacks under their commands. When action is set,
// only callbacks of that action are kept; commands are always listed.
func buildTrace(log store.RunLog, action string) TraceResult {
	result := TraceResult{
		RunID:        log.Run.ID,
		Schedule:     log.Run.Schedule.Name,
		ScheduleHash: log.Run.ScheduleHash,
		Precision:    log.Run.Precision,
		Commands:     make([]TraceCommand, 0, len(log.Commands)),
	}

	for _, c := range log.Commands {
		tc := TraceCommand{
			Seq:       c.Seq,
			Op:        c.Op.String(),
			T:         c.T,
			Callbacks: []ir.Callback{},
		}
		for _, rec := range log.CallbacksFor(c.Seq) {
			if action != "" && rec.Name != action {
				continue
			}
			tc.Callbacks = append(tc.Callbacks, rec.Callback)
			result.Stats.Callbacks++
			if rec.External {
				result.Stats.External++
			}
		}
		result.Commands = append(result.Commands, tc)
	}
	result.Stats.Commands = len(result.Commands)
	return result
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Schedule: %s\n", result.Schedule)
	if verbose {
		fmt.Fprintf(w, "Schedule hash: %s\n", result.ScheduleHash)
		fmt.Fprintf(w, "Precision: %g\n", result.Precision)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range result.Commands {
		fmt.Fprintf(w, "  [%d] %s", c.Seq, c.Op)
		switch c.Op {
		case "initialize", "step", "reverse_initialize":
			fmt.Fprintf(w, " %g", c.T)
		}
		fmt.Fprintln(w)
		for _, cb := range c.Callbacks {
			marker := ""
			if cb.External {
				marker = " (external)"
			}
			fmt.Fprintf(w, "       %d. %s%s\n", cb.Seq, cb, marker)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Commands:  %d\n", result.Stats.Commands)
	fmt.Fprintf(w, "  Callbacks: %d\n", result.Stats.Callbacks)
	fmt.Fprintf(w, "  External:  %d\n", result.Stats.External)
}
