package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sequence/internal/compiler"
	"github.com/roach88/sequence/internal/harness"
)

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Schedules int               `json:"schedules"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate schedules or scenarios without playing them",
		Long: `Validate CUE schedules, or harness scenario files (.yaml, .yml).

Reports every problem found rather than stopping at the first, with
source positions where available. Faster than compile for development
feedback.

Exit codes:
  0 - Valid
  1 - Validation errors found
  2 - Command error (path not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var result *ValidationResult
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		result = validateScenarioFile(path)
	default:
		var err error
		result, err = validateSchedules(path, formatter)
		if err != nil {
			return err
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func validateScenarioFile(path string) *ValidationResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return &ValidationResult{Errors: []ValidationIssue{{Code: ErrCodeGeneric, Message: err.Error(), File: path}}}
	}
	if _, err := scenario.ResolveSchedule(); err != nil {
		return &ValidationResult{Errors: []ValidationIssue{issueFromError(err)}}
	}
	return &ValidationResult{Valid: true, Schedules: 1}
}

// validateSchedules loads every schedule, collecting all errors, then runs
// the structural checks on the ones that loaded.
func validateSchedules(path string, formatter *OutputFormatter) (*ValidationResult, error) {
	loadResult, loadErrors := LoadSchedules(path, LoadModeCollectAll)
	if loadResult == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) && loadErr.Code == ErrCodeNotFound {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return nil, NewExitError(ExitCommandError, loadErr.Message)
		}
	}

	result := &ValidationResult{}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, issueFromError(err))
	}
	if loadResult != nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)
		result.Schedules = len(loadResult.Schedules)
		for i := range loadResult.Schedules {
			spec := &loadResult.Schedules[i]
			formatter.VerboseLog("Validating schedule: %s", spec.Name)
			for _, verr := range compiler.Validate(spec) {
				result.Errors = append(result.Errors, ValidationIssue{
					Code:    verr.Code,
					Message: fmt.Sprintf("schedule %s: %s: %s", spec.Name, verr.Field, verr.Message),
				})
			}
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func issueFromError(err error) ValidationIssue {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			issue.File = loadErr.Pos.Filename()
			issue.Line = loadErr.Pos.Line()
		}
		return issue
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return issueFromError(convertCompileError(compileErr, ""))
	}
	return ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()}
}

func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Validation passed (%d schedule(s))\n", result.Schedules)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: fmt.Sprintf("%d validation error(s)", len(result.Errors)),
			},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Validation failed with %d error(s):\n", len(result.Errors))
		for _, issue := range result.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(formatter.Writer, "  [%s] %s:%d: %s\n", issue.Code, issue.File, issue.Line, issue.Message)
			} else {
				fmt.Fprintf(formatter.Writer, "  [%s] %s\n", issue.Code, issue.Message)
			}
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
}
