// Package interval defines the contract between the playback engine and the
// timed actions it schedules, and the arena that holds them.
//
// Intervals are shared: the same interval may be scheduled by several
// parents. Parents reference children by ir.SlotID and children keep the
// slots of their parents as non-owning back-references, used only to
// propagate invalidation. Slot lifetime is governed by reference counts.
package interval

import (
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// Interval is a timed action that can be driven by a scheduler.
type Interval interface {
	// Name identifies the interval in dumps and traces.
	Name() string

	// Duration is the interval's length in time units. It may change when
	// the interval is invalidated.
	Duration() float64

	// OpenEnded intervals still run when skipped over entirely on a cold
	// start; closed ones are suppressed.
	OpenEnded() bool

	// SetT delivers one callback. t is the offset from the interval's own
	// begin time (zero for Finalize and the instant callbacks).
	SetT(t float64, event ir.EventType)
}

// Invalidator is implemented by intervals that cache derived state (such as
// a compiled timeline) and must be told when a descendant changes.
type Invalidator interface {
	Invalidate()
}

// Func is a leaf interval backed by a function.
type Func struct {
	name      string
	duration  float64
	openEnded bool
	fn        func(t float64, event ir.EventType)
}

// NewFunc creates a leaf interval. fn may be nil.
func NewFunc(name string, duration float64, openEnded bool, fn func(t float64, event ir.EventType)) *Func {
	return &Func{name: name, duration: duration, openEnded: openEnded, fn: fn}
}

func (f *Func) Name() string      { return f.name }
func (f *Func) Duration() float64 { return f.duration }
func (f *Func) OpenEnded() bool   { return f.openEnded }

func (f *Func) SetT(t float64, event ir.EventType) {
	if f.fn != nil {
		f.fn(t, event)
	}
}

// Describe renders an interval the way the diagnostic dump shows it:
// its String() if it has one, else "name dur D".
func Describe(iv Interval) string {
	if s, ok := iv.(fmt.Stringer); ok {
		return s.String()
	}
	if d := iv.Duration(); d != 0 {
		return fmt.Sprintf("%s dur %.6g", iv.Name(), d)
	}
	return iv.Name()
}
