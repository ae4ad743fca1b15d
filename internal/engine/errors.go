package engine

import (
	"errors"
	"fmt"
)

// ContractError reports a caller-contract violation. The rejected operation
// leaves the scheduler unchanged.
type ContractError struct {
	// Code identifies the violation.
	Code ErrorCode

	// Op is the operation that was rejected, e.g. "PopLevel".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes contract violations.
type ErrorCode string

const (
	// ErrCodeUnknownAction indicates a slot that is not registered in the arena.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"

	// ErrCodeNoOpenLevel indicates PopLevel without a matching PushLevel.
	ErrCodeNoOpenLevel ErrorCode = "NO_OPEN_LEVEL"

	// ErrCodePendingEvents indicates Clear while deferred events are queued.
	ErrCodePendingEvents ErrorCode = "PENDING_EVENTS"

	// ErrCodeInvalidAnchor indicates an out-of-range RelativeStart.
	ErrCodeInvalidAnchor ErrorCode = "INVALID_ANCHOR"

	// ErrCodeCycle indicates a schedule that would contain itself.
	ErrCodeCycle ErrorCode = "SCHEDULE_CYCLE"

	// ErrCodeNoPendingEvent indicates PopEvent with no external event at the head.
	ErrCodeNoPendingEvent ErrorCode = "NO_PENDING_EVENT"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// IsContractError reports whether err is a ContractError with the given code.
// Uses errors.As to handle wrapped errors.
func IsContractError(err error, code ErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// Fault is the panic value for internal consistency failures: the compiled
// timeline or the playback bookkeeping is provably wrong. Faults are never
// returned as errors; continuing would deliver a plausible but incorrect
// sequence of callbacks.
type Fault struct {
	Schedule string
	Message  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("schedule %q: consistency fault: %s", f.Schedule, f.Message)
}

// fault panics with a *Fault.
func (s *Scheduler) fault(format string, args ...any) {
	panic(&Fault{Schedule: s.name, Message: fmt.Sprintf(format, args...)})
}
