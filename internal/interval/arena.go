package interval

import (
	"errors"
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

var (
	// ErrUnknownSlot is returned for slot IDs that were never registered or
	// whose interval has been released.
	ErrUnknownSlot = errors.New("unknown interval slot")

	// ErrNotParent is returned when removing a parent edge that does not exist.
	ErrNotParent = errors.New("slot is not a parent of the interval")
)

type slot struct {
	iv      Interval
	parents []ir.SlotID
	refs    int
}

// Arena owns the intervals shared between schedulers.
//
// Each slot carries a reference count. Register hands the caller one
// reference; every parent edge holds another. A slot is freed when its
// count reaches zero. Freed IDs are never reused, so stale IDs are detected
// instead of aliasing a newer interval.
//
// Arena is not safe for concurrent use; schedulers are single-threaded.
type Arena struct {
	slots []*slot // index 0 unused so that ir.NoSlot is never valid
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{slots: []*slot{nil}}
}

// Register adds iv to the arena and returns its slot. The caller holds one
// reference and should Release it when done.
func (a *Arena) Register(iv Interval) ir.SlotID {
	a.slots = append(a.slots, &slot{iv: iv, refs: 1})
	return ir.SlotID(len(a.slots) - 1)
}

func (a *Arena) lookup(id ir.SlotID) (*slot, error) {
	if id <= ir.NoSlot || int(id) >= len(a.slots) || a.slots[id] == nil {
		return nil, fmt.Errorf("slot %d: %w", id, ErrUnknownSlot)
	}
	return a.slots[id], nil
}

// Get returns the interval in slot id.
func (a *Arena) Get(id ir.SlotID) (Interval, bool) {
	s, err := a.lookup(id)
	if err != nil {
		return nil, false
	}
	return s.iv, true
}

// Retain adds a reference to slot id.
func (a *Arena) Retain(id ir.SlotID) error {
	s, err := a.lookup(id)
	if err != nil {
		return err
	}
	s.refs++
	return nil
}

// Release drops a reference to slot id, freeing the slot at zero.
func (a *Arena) Release(id ir.SlotID) error {
	s, err := a.lookup(id)
	if err != nil {
		return err
	}
	s.refs--
	if s.refs <= 0 {
		a.slots[id] = nil
	}
	return nil
}

// Refs returns the reference count of slot id, or 0 if it is gone.
func (a *Arena) Refs(id ir.SlotID) int {
	s, err := a.lookup(id)
	if err != nil {
		return 0
	}
	return s.refs
}

// AddParent records parent as a scheduler of child. The edge holds a
// reference to child. The same parent may be recorded more than once (a
// schedule may list a child several times); each edge is removed separately.
func (a *Arena) AddParent(child, parent ir.SlotID) error {
	c, err := a.lookup(child)
	if err != nil {
		return err
	}
	if _, err := a.lookup(parent); err != nil {
		return err
	}
	c.parents = append(c.parents, parent)
	c.refs++
	return nil
}

// RemoveParent removes one parent edge and releases its reference.
func (a *Arena) RemoveParent(child, parent ir.SlotID) error {
	c, err := a.lookup(child)
	if err != nil {
		return err
	}
	for i, p := range c.parents {
		if p == parent {
			c.parents = append(c.parents[:i], c.parents[i+1:]...)
			return a.Release(child)
		}
	}
	return fmt.Errorf("slot %d, parent %d: %w", child, parent, ErrNotParent)
}

// Parents returns a copy of the parent slots of child.
func (a *Arena) Parents(child ir.SlotID) []ir.SlotID {
	c, err := a.lookup(child)
	if err != nil {
		return nil
	}
	out := make([]ir.SlotID, len(c.parents))
	copy(out, c.parents)
	return out
}

// MarkDirty invalidates every transitive parent of id. Each ancestor is
// visited once even when reachable along several paths.
func (a *Arena) MarkDirty(id ir.SlotID) {
	visited := map[ir.SlotID]bool{id: true}
	pending := a.Parents(id)
	for len(pending) > 0 {
		p := pending[0]
		pending = pending[1:]
		if visited[p] {
			continue
		}
		visited[p] = true
		s, err := a.lookup(p)
		if err != nil {
			continue
		}
		if inv, ok := s.iv.(Invalidator); ok {
			inv.Invalidate()
		}
		pending = append(pending, s.parents...)
	}
}

// Len returns the number of live slots.
func (a *Arena) Len() int {
	n := 0
	for _, s := range a.slots {
		if s != nil {
			n++
		}
	}
	return n
}
