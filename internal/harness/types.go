package harness

import (
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// TraceEvent is one delivered callback in a scenario trace.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Step     int    `json:"step"` // index of the scenario step that caused it
	Def      int    `json:"def"`
	Name     string `json:"name"`
	Event    string `json:"event"`
	Offset   int64  `json:"offset"` // ticks
	External bool   `json:"external,omitempty"`
}

// Key renders the event as "name:event", the form used by callback_order.
func (e TraceEvent) Key() string {
	return e.Name + ":" + e.Event
}

func (e TraceEvent) String() string {
	prefix := ""
	if e.External {
		prefix = "*"
	}
	return fmt.Sprintf("%s%s:%s@%d", prefix, e.Name, e.Event, e.Offset)
}

func newTraceEvent(step int, cb ir.Callback) TraceEvent {
	return TraceEvent{
		Seq:      cb.Seq,
		Step:     step,
		Def:      cb.Def,
		Name:     cb.Name,
		Event:    cb.Event.String(),
		Offset:   int64(cb.Offset),
		External: cb.External,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if all assertions hold.
	Pass bool `json:"pass"`

	// RunID identifies the recorded run in the store.
	RunID string `json:"run_id"`

	// ScheduleHash is the content hash of the schedule played.
	ScheduleHash string `json:"schedule_hash"`

	// Trace contains all delivered callbacks in order.
	Trace []TraceEvent `json:"trace"`

	// Duration is the compiled schedule duration.
	Duration float64 `json:"duration"`

	// Active names the actions still active after the last step.
	Active []string `json:"active"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Active: []string{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// StepTrace returns the callbacks caused by scenario step i.
func (r *Result) StepTrace(i int) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Step == i {
			out = append(out, e)
		}
	}
	return out
}
