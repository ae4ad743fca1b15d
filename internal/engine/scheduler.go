package engine

import (
	"log/slog"

	"github.com/roach88/sequence/internal/compiler"
	"github.com/roach88/sequence/internal/config"
	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
)

// Observer receives every delivered callback, in delivery order.
type Observer func(ir.Callback)

// Scheduler is a nested-interval schedule and its playback state.
//
// Definitions are appended with PushLevel, AddAction, AddExternal and
// PopLevel. The definition list is compiled into a sorted timeline on demand,
// and the playback operations walk that timeline forward or backward,
// delivering callbacks to the scheduled intervals.
//
// A Scheduler is itself an interval.Interval, so schedules nest. It is not
// safe for concurrent use.
//
// INVARIANTS:
//   - active holds exactly the Begin events whose End has not been crossed
//   - events[:next] have been processed, events[next:] have not
//   - the queue is empty whenever Clear succeeds
type Scheduler struct {
	name   string
	arena  *interval.Arena
	self   ir.SlotID
	quant  ir.Quantizer
	logger *slog.Logger

	clock    *Clock
	observer Observer

	defs   []ir.Def
	levels int
	dirty  bool

	events   []*ir.PlaybackEvent
	end      ir.Ticks
	duration float64
	warnings []compiler.Warning

	active *activeSet
	next   int
	currT  float64
	now    ir.Ticks

	queue *eventQueue
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPrecision sets the quantization precision in ticks per time unit.
// Values that are not positive and finite are ignored.
func WithPrecision(precision float64) Option {
	return func(s *Scheduler) {
		if ir.ValidPrecision(precision) {
			s.quant = ir.NewQuantizer(precision)
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a callback observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// WithClock sets the clock stamping observed callbacks. Nested schedulers
// sharing one clock produce a single interleaved sequence.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates an empty scheduler and registers it in arena, so it can be
// scheduled by other schedulers through Slot.
//
// The precision defaults to config.DefaultPrecision().
func New(arena *interval.Arena, name string, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:   name,
		arena:  arena,
		quant:  ir.NewQuantizer(config.DefaultPrecision()),
		logger: slog.Default(),
		clock:  NewClock(),
		active: newActiveSet(),
		queue:  newEventQueue(),
		dirty:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.self = arena.Register(s)
	return s
}

// Close clears the schedule and releases the scheduler's own arena
// reference. Parents that still schedule it keep it alive.
func (s *Scheduler) Close() error {
	if err := s.Clear(); err != nil {
		return err
	}
	return s.arena.Release(s.self)
}

// Name implements interval.Interval.
func (s *Scheduler) Name() string { return s.name }

// Slot returns the scheduler's own arena slot.
func (s *Scheduler) Slot() ir.SlotID { return s.self }

// Precision returns the ticks per time unit.
func (s *Scheduler) Precision() float64 { return s.quant.Precision }

// OpenEnded implements interval.Interval. A nested schedule always runs
// its children when skipped over.
func (s *Scheduler) OpenEnded() bool { return true }

// Duration implements interval.Interval, compiling first if needed.
func (s *Scheduler) Duration() float64 {
	s.recompute()
	return s.duration
}

// Invalidate implements interval.Invalidator: a descendant changed.
func (s *Scheduler) Invalidate() {
	s.dirty = true
}

// SetT implements interval.Interval by dispatching to the playback
// operation named by event.
func (s *Scheduler) SetT(t float64, event ir.EventType) {
	switch event {
	case ir.EventInitialize:
		s.Initialize(t)
	case ir.EventInstant:
		s.Instant()
	case ir.EventStep:
		s.Step(t)
	case ir.EventFinalize:
		s.Finalize()
	case ir.EventReverseInitialize:
		s.ReverseInitialize(t)
	case ir.EventReverseInstant:
		s.ReverseInstant()
	case ir.EventReverseFinalize:
		s.ReverseFinalize()
	default:
		s.fault("unknown event type %d", int(event))
	}
}

// T returns the current playback time.
func (s *Scheduler) T() float64 { return s.currT }

// Compile forces compilation of a dirty definition list.
func (s *Scheduler) Compile() { s.recompute() }

// IsDirty reports whether the definition list changed since the last
// compilation.
func (s *Scheduler) IsDirty() bool { return s.dirty }

// NumDefs returns the number of definitions.
func (s *Scheduler) NumDefs() int { return len(s.defs) }

// Defs returns a copy of the definition list.
func (s *Scheduler) Defs() []ir.Def {
	out := make([]ir.Def, len(s.defs))
	copy(out, s.defs)
	return out
}

// Events returns the compiled timeline, compiling first if needed.
// The events are owned by the scheduler and must not be modified.
func (s *Scheduler) Events() []*ir.PlaybackEvent {
	s.recompute()
	return s.events
}

// Warnings returns the diagnostics of the last compilation.
func (s *Scheduler) Warnings() []compiler.Warning {
	return s.warnings
}

// Active returns the definition indices of the running actions in
// timeline order.
func (s *Scheduler) Active() []int {
	evs := s.active.events()
	out := make([]int, len(evs))
	for i, ev := range evs {
		out[i] = ev.Def
	}
	return out
}

// ActualBeginTime returns the compiled begin time of definition n.
func (s *Scheduler) ActualBeginTime(n int) float64 {
	s.recompute()
	if n < 0 || n >= len(s.defs) {
		return 0
	}
	return s.quant.Time(s.defs[n].ActualBeginTime)
}

// DefName returns the display name of definition n, or "" for levels.
func (s *Scheduler) DefName(n int) string {
	if n < 0 || n >= len(s.defs) {
		return ""
	}
	def := &s.defs[n]
	switch def.Type {
	case ir.DefNative:
		if iv, ok := s.arena.Get(def.Slot); ok {
			return iv.Name()
		}
	case ir.DefExternal:
		return def.ExtName
	}
	return ""
}

// recompute rebuilds the timeline if the definition list is dirty. The new
// timeline replaces the old one only once compilation has succeeded.
func (s *Scheduler) recompute() {
	if !s.dirty {
		return
	}

	tl, err := compiler.Compile(s.defs, s.quant, s.durationOf)
	if err != nil {
		s.fault("compile: %v", err)
	}

	for i := range s.defs {
		s.defs[i].ActualBeginTime = tl.BeginTimes[i]
	}
	s.events = tl.Events
	s.end = tl.End
	s.duration = tl.Duration
	s.warnings = tl.Warnings
	s.active.clear()
	s.next = 0
	s.dirty = false

	for _, w := range tl.Warnings {
		s.logger.Warn("schedule compiled with warnings",
			"schedule", s.name,
			"code", w.Code,
			"def", w.Def,
			"message", w.Message,
		)
	}
	s.logger.Debug("schedule compiled",
		"schedule", s.name,
		"defs", len(s.defs),
		"events", len(s.events),
		"duration", s.duration,
	)
}

func (s *Scheduler) durationOf(n int, def *ir.Def) float64 {
	switch def.Type {
	case ir.DefNative:
		iv, ok := s.arena.Get(def.Slot)
		if !ok {
			s.fault("def %d: interval slot %d released while scheduled", n, def.Slot)
		}
		return iv.Duration()
	case ir.DefExternal:
		return def.ExtDuration
	}
	return 0
}
