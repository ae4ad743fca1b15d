package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// durationTolerance absorbs the float error of converting ticks back to time.
const durationTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s\n", event.Seq, event.Step, event)
		}
	}

	return buf.String()
}

// assertCallbackCount checks that the named action received exactly Count
// callbacks, of the given event type if one is set.
func assertCallbackCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Name != assertion.Name {
			continue
		}
		if assertion.Event != "" && event.Event != assertion.Event {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Name
		if assertion.Event != "" {
			what += ":" + assertion.Event
		}
		return &AssertionError{
			Type:     AssertCallbackCount,
			Expected: fmt.Sprintf("%s %d time(s)", what, assertion.Count),
			Actual:   fmt.Sprintf("%d time(s)", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertCallbackOrder checks that the "name:event" entries appear in the
// trace in order. Other callbacks may appear in between.
func assertCallbackOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Order {
		found := false
		for pos < len(trace) {
			key := trace[pos].Key()
			pos++
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertCallbackOrder,
				Expected: fmt.Sprintf("callbacks in order: %v", assertion.Order),
				Actual:   fmt.Sprintf("%s not found after the preceding entries", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertActive checks the final active set, in timeline order.
func assertActive(result *Result, assertion Assertion) error {
	want := assertion.Names
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(result.Active, want) {
		return &AssertionError{
			Type:     AssertActive,
			Expected: fmt.Sprintf("active %v", want),
			Actual:   fmt.Sprintf("active %v", result.Active),
		}
	}
	return nil
}

func assertDuration(result *Result, assertion Assertion) error {
	if math.Abs(result.Duration-assertion.Duration) > durationTolerance {
		return &AssertionError{
			Type:     AssertDuration,
			Expected: fmt.Sprintf("duration %g", assertion.Duration),
			Actual:   fmt.Sprintf("duration %g", result.Duration),
		}
	}
	return nil
}

// assertNoCallbacks checks that a step delivered nothing.
func assertNoCallbacks(result *Result, assertion Assertion) error {
	if got := result.StepTrace(assertion.StepIndex); len(got) > 0 {
		return &AssertionError{
			Type:     AssertNoCallbacks,
			Expected: fmt.Sprintf("no callbacks from step %d", assertion.StepIndex),
			Actual:   fmt.Sprintf("%d callback(s)", len(got)),
			Trace:    got,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns the failure messages; empty if every assertion holds.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCallbackCount:
			err = assertCallbackCount(result.Trace, assertion)
		case AssertCallbackOrder:
			err = assertCallbackOrder(result.Trace, assertion)
		case AssertActive:
			err = assertActive(result, assertion)
		case AssertDuration:
			err = assertDuration(result, assertion)
		case AssertNoCallbacks:
			err = assertNoCallbacks(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
