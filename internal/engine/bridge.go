package engine

import (
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// ExternalEvent is a deferred callback for an action hosted outside this
// process, as presented to the host. Def indexes the definitions of the
// schedule named by Schedule, which is a nested schedule when the event
// was raised below the one being serviced.
type ExternalEvent struct {
	Schedule string
	Def      int
	Handle   int
	Name     string
	Event    ir.EventType
	T        float64
}

func (e ExternalEvent) String() string {
	return fmt.Sprintf("*%s:%s@%g", e.Name, e.Event, e.T)
}

// enqueue delivers or defers one callback. Instant callbacks issued on a
// cold start are dropped for closed actions.
func (s *Scheduler) enqueue(n int, event ir.EventType, isInitial bool, offset ir.Ticks) {
	if n < 0 || n >= len(s.defs) {
		s.fault("enqueue: def %d out of range", n)
	}
	def := &s.defs[n]
	skipped := isInitial && event.IsInstant()

	switch def.Type {
	case ir.DefNative:
		iv, ok := s.arena.Get(def.Slot)
		if !ok {
			s.fault("def %d: interval slot %d released while scheduled", n, def.Slot)
		}
		if skipped && !iv.OpenEnded() {
			return
		}
		if s.queue.Len() == 0 {
			s.deliver(n, event, offset)
			if s.holding(n) {
				s.queue.Enqueue(ir.QueueEntry{Def: n, Nested: true})
			}
			return
		}

	case ir.DefExternal:
		if skipped && !def.ExtOpenEnded {
			return
		}
		s.logger.Debug("deferring external event",
			"schedule", s.name,
			"def", n,
			"name", def.ExtName,
			"event", event.String(),
		)

	default:
		s.fault("enqueue: def %d has type %s", n, def.Type)
	}

	s.queue.Enqueue(ir.QueueEntry{Def: n, Event: event, Time: offset})
}

// deliver invokes a native interval.
func (s *Scheduler) deliver(n int, event ir.EventType, offset ir.Ticks) {
	def := &s.defs[n]
	iv, ok := s.arena.Get(def.Slot)
	if !ok {
		s.fault("def %d: interval slot %d released while scheduled", n, def.Slot)
	}
	s.observe(n, iv.Name(), event, offset, false)
	iv.SetT(s.quant.Time(offset), event)
}

func (s *Scheduler) observe(n int, name string, event ir.EventType, offset ir.Ticks, external bool) {
	if s.observer == nil {
		return
	}
	s.observer(ir.Callback{
		Seq:      s.clock.Next(),
		Def:      n,
		Name:     name,
		Event:    event,
		Offset:   offset,
		External: external,
	})
}

// nested returns the schedule at def n when it is a nested Scheduler.
func (s *Scheduler) nested(n int) (*Scheduler, bool) {
	def := &s.defs[n]
	if def.Type != ir.DefNative {
		return nil, false
	}
	iv, ok := s.arena.Get(def.Slot)
	if !ok {
		return nil, false
	}
	child, ok := iv.(*Scheduler)
	return child, ok
}

// holding reports whether def n is a nested schedule left with deferred
// events, which later callbacks must wait behind.
func (s *Scheduler) holding(n int) bool {
	child, ok := s.nested(n)
	return ok && child.queue.Len() > 0
}

// pending reports whether this schedule or any schedule nested in it holds
// deferred events.
func (s *Scheduler) pending() bool {
	if s.queue.Len() > 0 {
		return true
	}
	for i := range s.defs {
		if child, ok := s.nested(i); ok && child.pending() {
			return true
		}
	}
	return false
}

// checkQueued faults on a queue entry that no longer matches a definition.
func (s *Scheduler) checkQueued(entry ir.QueueEntry) {
	if entry.Def < 0 || entry.Def >= len(s.defs) {
		s.fault("queued def %d out of range", entry.Def)
	}
	if entry.Nested {
		if _, ok := s.nested(entry.Def); !ok {
			s.fault("queued def %d is not a nested schedule", entry.Def)
		}
	}
}

// head follows nested entries down to the schedule owning the next
// callback in delivery order, and returns that schedule with its front
// entry. Nested entries whose queue has drained are dropped on the way.
func (s *Scheduler) head() (*Scheduler, ir.QueueEntry, bool) {
	for {
		entry, ok := s.queue.Peek()
		if !ok {
			return nil, ir.QueueEntry{}, false
		}
		s.checkQueued(entry)
		if !entry.Nested {
			return s, entry, true
		}
		child, _ := s.nested(entry.Def)
		if owner, e, ok := child.head(); ok {
			return owner, e, true
		}
		s.queue.TryDequeue()
	}
}

// ServiceQueue invokes native callbacks at the head of the deferred queue,
// descending into nested schedules that still hold deferred events.
// It returns true when an external callback reaches the head, which the
// host must handle (PendingEvent, then PopEvent) before calling again, and
// false once the queue is empty.
func (s *Scheduler) ServiceQueue() bool {
	for {
		entry, ok := s.queue.Peek()
		if !ok {
			return false
		}
		s.checkQueued(entry)
		if entry.Nested {
			child, _ := s.nested(entry.Def)
			if child.ServiceQueue() {
				return true
			}
			s.queue.TryDequeue()
			continue
		}
		switch s.defs[entry.Def].Type {
		case ir.DefNative:
			s.queue.TryDequeue()
			s.deliver(entry.Def, entry.Event, entry.Time)
			if s.holding(entry.Def) {
				s.queue.PushFront(ir.QueueEntry{Def: entry.Def, Nested: true})
			}
		case ir.DefExternal:
			return true
		default:
			s.fault("queued def %d has type %s", entry.Def, s.defs[entry.Def].Type)
		}
	}
}

// HasPendingExternal reports whether an external callback is next in
// delivery order, here or in a nested schedule. It does not service
// native entries.
func (s *Scheduler) HasPendingExternal() bool {
	owner, entry, ok := s.head()
	return ok && owner.defs[entry.Def].Type == ir.DefExternal
}

// QueueLen returns the number of deferred entries of this schedule. A
// nested schedule holding deferred events counts as one entry.
func (s *Scheduler) QueueLen() int {
	return s.queue.Len()
}

// PendingEvent returns the external callback at the head of the queue.
func (s *Scheduler) PendingEvent() (ExternalEvent, bool) {
	owner, entry, ok := s.head()
	if !ok {
		return ExternalEvent{}, false
	}
	def := &owner.defs[entry.Def]
	if def.Type != ir.DefExternal {
		return ExternalEvent{}, false
	}
	return ExternalEvent{
		Schedule: owner.name,
		Def:      entry.Def,
		Handle:   def.ExtIndex,
		Name:     def.ExtName,
		Event:    entry.Event,
		T:        owner.quant.Time(entry.Time),
	}, true
}

// PopEvent removes the external callback at the head of the queue once the
// host has invoked it.
func (s *Scheduler) PopEvent() error {
	owner, entry, ok := s.head()
	if !ok || owner.defs[entry.Def].Type != ir.DefExternal {
		return &ContractError{
			Code:    ErrCodeNoPendingEvent,
			Op:      "PopEvent",
			Message: "no external event at the head of the queue",
		}
	}
	owner.queue.TryDequeue()
	owner.observe(entry.Def, owner.defs[entry.Def].ExtName, entry.Event, entry.Time, true)
	return nil
}
