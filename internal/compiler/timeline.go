package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/sequence/internal/ir"
)

// Warning codes for soft structural anomalies. Compilation always completes
// when only warnings are reported.
const (
	WarnUnbalancedLevels = "W001" // pushes don't match pops
	WarnNegativeDuration = "W002" // duration below zero, treated as zero
)

// Warning is a non-fatal compile diagnostic.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Def     int    `json:"def"` // -1 when not tied to one definition
}

func (w Warning) String() string {
	if w.Def >= 0 {
		return fmt.Sprintf("[%s] def %d: %s", w.Code, w.Def, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// DurationFunc returns the declared duration of a native or external
// definition in time units.
type DurationFunc func(index int, def *ir.Def) float64

// Timeline is the result of compiling a definition list.
type Timeline struct {
	// Events are sorted by Time; ties keep declaration order.
	Events []*ir.PlaybackEvent

	// BeginTimes holds the resolved begin time of every definition.
	// A closing pop "begins" at its level's end time.
	BeginTimes []ir.Ticks

	// End is the end time of the outermost level.
	End ir.Ticks

	// Duration is End converted back to time units.
	Duration float64

	Warnings []Warning
}

// Compile resolves every definition's relative time into an absolute
// quantized time and emits the flat, sorted event list.
//
// Unbalanced push/pop definitions do not fail compilation: a missing pop is
// closed implicitly at the end of the list, and an unmatched pop at the top
// level ends the walk. Both are reported as WarnUnbalancedLevels.
//
// The returned Timeline is freshly allocated; defs is not modified.
func Compile(defs []ir.Def, q ir.Quantizer, durationOf DurationFunc) (*Timeline, error) {
	w := &walker{
		defs:       defs,
		q:          q,
		durationOf: durationOf,
		tl: &Timeline{
			BeginTimes: make([]ir.Ticks, len(defs)),
		},
	}

	n, end, err := w.level(0, 0)
	if err != nil {
		return nil, err
	}
	if n != len(defs) {
		w.warn(WarnUnbalancedLevels, -1, "pushes don't match pops")
	}

	if len(w.tl.Events) > 2*len(defs) {
		return nil, fmt.Errorf("compiled %d events from %d definitions", len(w.tl.Events), len(defs))
	}

	// Stable: events at the same time must fire in declaration order.
	sort.SliceStable(w.tl.Events, func(i, j int) bool {
		return w.tl.Events[i].Time < w.tl.Events[j].Time
	})
	for i, ev := range w.tl.Events {
		ev.Pos = i
	}

	w.tl.End = end
	w.tl.Duration = q.Time(end)
	return w.tl, nil
}

type walker struct {
	defs       []ir.Def
	q          ir.Quantizer
	durationOf DurationFunc
	tl         *Timeline
}

func (w *walker) warn(code string, def int, msg string) {
	w.tl.Warnings = append(w.tl.Warnings, Warning{Code: code, Message: msg, Def: def})
}

// level compiles one level starting at definition n (the entry after its
// push). It returns the index of the matching pop, or an index past the end
// of the list if there was none, and the level's end time.
func (w *walker) level(n int, levelBegin ir.Ticks) (int, ir.Ticks, error) {
	levelEnd := levelBegin
	previousBegin := levelBegin
	previousEnd := levelBegin

	for n < len(w.defs) && w.defs[n].Type != ir.DefPopLevel {
		def := &w.defs[n]
		begin, err := beginTime(def, levelBegin, previousBegin, previousEnd, w.q)
		if err != nil {
			return n, levelEnd, fmt.Errorf("def %d: %w", n, err)
		}
		w.tl.BeginTimes[n] = begin

		var end ir.Ticks
		switch def.Type {
		case ir.DefNative, ir.DefExternal:
			end = begin + w.q.Ticks(w.durationOf(n, def))
			if end < begin {
				w.warn(WarnNegativeDuration, n, "negative duration treated as zero")
				end = begin
			}
			w.emit(n, begin, end)

		case ir.DefPushLevel:
			n, end, err = w.level(n+1, begin)
			if err != nil {
				return n, levelEnd, err
			}

		default:
			return n, levelEnd, fmt.Errorf("def %d: unexpected definition type %s", n, def.Type)
		}

		previousBegin = begin
		previousEnd = end
		levelEnd = max(levelEnd, end)
		n++
	}

	if n < len(w.defs) {
		// The closing pop "begins" at the level end, for the dump.
		w.tl.BeginTimes[n] = levelEnd
	}
	return n, levelEnd, nil
}

// emit appends an Instant event for zero-length intervals, else a
// Begin/End pair.
func (w *walker) emit(n int, begin, end ir.Ticks) {
	if begin == end {
		ev := &ir.PlaybackEvent{Time: begin, Def: n, Type: ir.PlaybackInstant}
		ev.Begin = ev
		w.tl.Events = append(w.tl.Events, ev)
		return
	}
	b := &ir.PlaybackEvent{Time: begin, Def: n, Type: ir.PlaybackBegin}
	b.Begin = b
	e := &ir.PlaybackEvent{Time: end, Def: n, Type: ir.PlaybackEnd, Begin: b}
	w.tl.Events = append(w.tl.Events, b, e)
}

// beginTime resolves a definition's relative start against its level.
func beginTime(def *ir.Def, levelBegin, previousBegin, previousEnd ir.Ticks, q ir.Quantizer) (ir.Ticks, error) {
	switch def.RelTo {
	case ir.PreviousEnd:
		return previousEnd + q.Ticks(def.RelTime), nil
	case ir.PreviousBegin:
		return previousBegin + q.Ticks(def.RelTime), nil
	case ir.LevelBegin:
		return levelBegin + q.Ticks(def.RelTime), nil
	default:
		return previousEnd, fmt.Errorf("unresolved anchor %s", def.RelTo)
	}
}
