package engine

import "github.com/roach88/sequence/internal/ir"

// Initialize starts playback cold at time t. Every action whose span
// contains t is initialized; actions entirely before t are skipped, except
// that open-ended ones still receive their instant callback.
func (s *Scheduler) Initialize(t float64) {
	s.recompute()
	s.active.clear()
	s.next = 0

	now := s.quant.Ticks(t)
	newActive := newActiveSet()
	for s.next < len(s.events) && s.events[s.next].Time <= now {
		s.doEventForward(s.events[s.next], newActive, true)
		s.next++
	}
	s.finishEventsForward(now, newActive)
	s.setTime(t, now)
}

// Step moves playback to time t from the current position, forward or
// backward. Stepping again to the current time delivers nothing.
//
// Step does not recompile: a definition list changed mid-playback takes
// effect at the next Initialize.
func (s *Scheduler) Step(t float64) {
	now := s.quant.Ticks(t)
	newActive := newActiveSet()

	if s.next < len(s.events) && s.events[s.next].Time <= now {
		for s.next < len(s.events) && s.events[s.next].Time <= now {
			s.doEventForward(s.events[s.next], newActive, false)
			s.next++
		}
		s.finishEventsForward(now, newActive)
		s.setTime(t, now)
		return
	}

	if now == s.now && (s.next == 0 || s.events[s.next-1].Time <= now) {
		s.currT = t
		return
	}

	for s.next > 0 && s.events[s.next-1].Time > now {
		s.next--
		s.doEventReverse(s.events[s.next], newActive, false)
	}
	s.finishEventsReverse(now, newActive)
	s.setTime(t, now)
}

// Finalize runs playback to the end: every remaining event is processed and
// the active set ends empty.
func (s *Scheduler) Finalize() {
	newActive := newActiveSet()
	for s.next < len(s.events) {
		s.doEventForward(s.events[s.next], newActive, false)
		s.next++
	}
	s.finishEventsForward(s.end, newActive)
	s.setTime(s.duration, s.end)
}

// Instant jumps from the beginning straight to the end. Each action gets a
// single instant callback; closed actions are suppressed.
func (s *Scheduler) Instant() {
	s.recompute()
	s.active.clear()
	for _, ev := range s.events {
		if ev.Type != ir.PlaybackBegin {
			s.enqueue(ev.Def, ir.EventInstant, true, 0)
		}
	}
	s.next = len(s.events)
	s.setTime(s.duration, s.end)
}

// ReverseInitialize starts reverse playback cold at time t, as if arriving
// from the end.
func (s *Scheduler) ReverseInitialize(t float64) {
	s.recompute()
	s.active.clear()
	s.next = len(s.events)

	now := s.quant.Ticks(t)
	newActive := newActiveSet()
	for s.next > 0 && s.events[s.next-1].Time > now {
		s.next--
		s.doEventReverse(s.events[s.next], newActive, true)
	}
	s.finishEventsReverse(now, newActive)
	s.setTime(t, now)
}

// ReverseInstant jumps from the end straight to the beginning.
func (s *Scheduler) ReverseInstant() {
	s.recompute()
	s.active.clear()
	for i := len(s.events) - 1; i >= 0; i-- {
		if ev := s.events[i]; ev.Type != ir.PlaybackBegin {
			s.enqueue(ev.Def, ir.EventReverseInstant, true, 0)
		}
	}
	s.next = 0
	s.setTime(0, 0)
}

// ReverseFinalize runs playback back to the start.
func (s *Scheduler) ReverseFinalize() {
	newActive := newActiveSet()
	for s.next > 0 {
		s.next--
		s.doEventReverse(s.events[s.next], newActive, false)
	}
	s.finishEventsReverse(0, newActive)
	s.setTime(0, 0)
}

func (s *Scheduler) setTime(t float64, now ir.Ticks) {
	s.currT = t
	s.now = now
}

// doEventForward applies one event while time moves forward.
func (s *Scheduler) doEventForward(ev *ir.PlaybackEvent, newActive *activeSet, isInitial bool) {
	switch ev.Type {
	case ir.PlaybackBegin:
		if ev.Begin != ev {
			s.fault("begin event at pos %d does not reference itself", ev.Pos)
		}
		if s.active.contains(ev) || !newActive.insert(ev) {
			s.fault("def %d begun twice", ev.Def)
		}

	case ir.PlaybackEnd:
		// Begun and ended in the same pass: the action was never initialized.
		if newActive.erase(ev.Begin) {
			s.enqueue(ev.Def, ir.EventInstant, isInitial, 0)
		} else if s.active.erase(ev.Begin) {
			s.enqueue(ev.Def, ir.EventFinalize, isInitial, 0)
		} else {
			s.fault("def %d ended without begin", ev.Def)
		}

	case ir.PlaybackInstant:
		if s.active.contains(ev) || newActive.contains(ev) {
			s.fault("instant def %d found in active set", ev.Def)
		}
		s.enqueue(ev.Def, ir.EventInstant, isInitial, 0)

	default:
		s.fault("unknown playback event type %d", int(ev.Type))
	}
}

// doEventReverse undoes one event while time moves backward. Begin and End
// swap roles.
func (s *Scheduler) doEventReverse(ev *ir.PlaybackEvent, newActive *activeSet, isInitial bool) {
	switch ev.Type {
	case ir.PlaybackEnd:
		if s.active.contains(ev.Begin) || !newActive.insert(ev.Begin) {
			s.fault("def %d re-entered twice", ev.Def)
		}

	case ir.PlaybackBegin:
		if newActive.erase(ev) {
			s.enqueue(ev.Def, ir.EventReverseInstant, isInitial, 0)
		} else if s.active.erase(ev) {
			s.enqueue(ev.Def, ir.EventReverseFinalize, isInitial, 0)
		} else {
			s.fault("def %d un-begun without end", ev.Def)
		}

	case ir.PlaybackInstant:
		if s.active.contains(ev) || newActive.contains(ev) {
			s.fault("instant def %d found in active set", ev.Def)
		}
		s.enqueue(ev.Def, ir.EventReverseInstant, isInitial, 0)

	default:
		s.fault("unknown playback event type %d", int(ev.Type))
	}
}

// finishEventsForward steps the actions that stayed active, then
// initializes the ones that became active, all at offset now-begin.
func (s *Scheduler) finishEventsForward(now ir.Ticks, newActive *activeSet) {
	for _, ev := range s.active.events() {
		s.enqueue(ev.Def, ir.EventStep, false, now-ev.Time)
	}
	for _, ev := range newActive.events() {
		s.enqueue(ev.Def, ir.EventInitialize, false, now-ev.Time)
		if !s.active.insert(ev) {
			s.fault("def %d already active", ev.Def)
		}
	}
}

func (s *Scheduler) finishEventsReverse(now ir.Ticks, newActive *activeSet) {
	for _, ev := range s.active.events() {
		s.enqueue(ev.Def, ir.EventStep, false, now-ev.Time)
	}
	for _, ev := range newActive.events() {
		s.enqueue(ev.Def, ir.EventReverseInitialize, false, now-ev.Time)
		if !s.active.insert(ev) {
			s.fault("def %d already active", ev.Def)
		}
	}
}
