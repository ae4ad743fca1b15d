package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
)

// Call is one callback received by a recorded interval.
type Call struct {
	Name  string
	Event ir.EventType
	T     float64
}

// String renders "name:event@t" with t in %g form.
func (c Call) String() string {
	return fmt.Sprintf("%s:%s@%g", c.Name, c.Event, c.T)
}

// Recorder logs the callbacks of many leaf intervals into one ordered list,
// so tests can assert on the interleaving across actions.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Interval returns a leaf interval that records into r.
func (r *Recorder) Interval(name string, duration float64, openEnded bool) *interval.Func {
	return interval.NewFunc(name, duration, openEnded, func(t float64, event ir.EventType) {
		r.Record(name, t, event)
	})
}

// Record appends one call.
func (r *Recorder) Record(name string, t float64, event ir.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Event: event, T: t})
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Strings returns the recorded calls rendered with Call.String.
func (r *Recorder) Strings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Reset discards the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Count returns the number of recorded calls, optionally restricted to one
// interval name ("" counts all).
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return len(r.calls)
	}
	n := 0
	for _, c := range r.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}
