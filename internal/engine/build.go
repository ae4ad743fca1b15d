package engine

import (
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// PushLevel opens a nested group positioned relative to relTo. Returns the
// index of the new definition.
func (s *Scheduler) PushLevel(relTime float64, relTo ir.RelativeStart) (int, error) {
	if err := checkAnchor("PushLevel", relTo); err != nil {
		return -1, err
	}
	s.levels++
	return s.appendDef(ir.Def{Type: ir.DefPushLevel, RelTime: relTime, RelTo: relTo}), nil
}

// PopLevel closes the innermost open group.
func (s *Scheduler) PopLevel() (int, error) {
	if s.levels <= 0 {
		return -1, &ContractError{
			Code:    ErrCodeNoOpenLevel,
			Op:      "PopLevel",
			Message: "no open level to pop",
		}
	}
	s.levels--
	return s.appendDef(ir.Def{Type: ir.DefPopLevel}), nil
}

// AddAction schedules the interval in slot id. The scheduler becomes one of
// its parents and holds a reference to it until Clear.
func (s *Scheduler) AddAction(id ir.SlotID, relTime float64, relTo ir.RelativeStart) (int, error) {
	if err := checkAnchor("AddAction", relTo); err != nil {
		return -1, err
	}
	if _, ok := s.arena.Get(id); !ok {
		return -1, &ContractError{
			Code:    ErrCodeUnknownAction,
			Op:      "AddAction",
			Message: fmt.Sprintf("slot %d is not registered", id),
		}
	}
	if s.isAncestor(id) {
		return -1, &ContractError{
			Code:    ErrCodeCycle,
			Op:      "AddAction",
			Message: fmt.Sprintf("slot %d already schedules %q", id, s.name),
		}
	}
	if err := s.arena.AddParent(id, s.self); err != nil {
		return -1, &ContractError{Code: ErrCodeUnknownAction, Op: "AddAction", Message: "cannot attach", Err: err}
	}
	return s.appendDef(ir.Def{Type: ir.DefNative, Slot: id, RelTime: relTime, RelTo: relTo}), nil
}

// AddExternal schedules an action hosted outside this process. Its
// callbacks are always routed through the deferred queue.
func (s *Scheduler) AddExternal(handle int, name string, duration float64, openEnded bool,
	relTime float64, relTo ir.RelativeStart) (int, error) {
	if err := checkAnchor("AddExternal", relTo); err != nil {
		return -1, err
	}
	return s.appendDef(ir.Def{
		Type:         ir.DefExternal,
		ExtIndex:     handle,
		ExtName:      name,
		ExtDuration:  duration,
		ExtOpenEnded: openEnded,
		RelTime:      relTime,
		RelTo:        relTo,
	}), nil
}

// Clear removes every definition and detaches from every scheduled
// interval. Rejected while deferred events are pending here or in any
// nested schedule.
func (s *Scheduler) Clear() error {
	if s.pending() {
		return &ContractError{
			Code:    ErrCodePendingEvents,
			Op:      "Clear",
			Message: fmt.Sprintf("deferred events pending (%d queued here)", s.queue.Len()),
		}
	}

	for i := range s.defs {
		def := &s.defs[i]
		if def.Type != ir.DefNative {
			continue
		}
		if err := s.arena.RemoveParent(def.Slot, s.self); err != nil {
			s.fault("def %d: %v", i, err)
		}
	}
	s.defs = nil
	s.levels = 0
	s.events = nil
	s.active.clear()
	s.next = 0
	s.currT = 0
	s.now = 0
	s.markDirty()
	return nil
}

func (s *Scheduler) appendDef(def ir.Def) int {
	s.defs = append(s.defs, def)
	s.markDirty()
	return len(s.defs) - 1
}

// markDirty flags this schedule and every schedule containing it.
func (s *Scheduler) markDirty() {
	s.dirty = true
	s.arena.MarkDirty(s.self)
}

// isAncestor reports whether id is this scheduler or transitively schedules it.
func (s *Scheduler) isAncestor(id ir.SlotID) bool {
	visited := map[ir.SlotID]bool{}
	pending := []ir.SlotID{s.self}
	for len(pending) > 0 {
		p := pending[0]
		pending = pending[1:]
		if p == id {
			return true
		}
		if visited[p] {
			continue
		}
		visited[p] = true
		pending = append(pending, s.arena.Parents(p)...)
	}
	return false
}

func checkAnchor(op string, relTo ir.RelativeStart) error {
	switch relTo {
	case ir.PreviousEnd, ir.PreviousBegin, ir.LevelBegin:
		return nil
	}
	return &ContractError{
		Code:    ErrCodeInvalidAnchor,
		Op:      op,
		Message: fmt.Sprintf("unknown relative start %d", int(relTo)),
	}
}
