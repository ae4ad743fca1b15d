package engine

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"github.com/roach88/sequence/internal/ir"
)

// activeSet holds Begin events, keyed by timeline position so iteration is
// deterministic and follows timeline order.
type activeSet struct {
	tree *rbt.Tree[int, *ir.PlaybackEvent]
}

func newActiveSet() *activeSet {
	return &activeSet{tree: rbt.New[int, *ir.PlaybackEvent]()}
}

// insert adds ev. Returns false if it was already present.
func (s *activeSet) insert(ev *ir.PlaybackEvent) bool {
	if _, found := s.tree.Get(ev.Pos); found {
		return false
	}
	s.tree.Put(ev.Pos, ev)
	return true
}

// erase removes ev. Returns false if it was not present.
func (s *activeSet) erase(ev *ir.PlaybackEvent) bool {
	cur, found := s.tree.Get(ev.Pos)
	if !found || cur != ev {
		return false
	}
	s.tree.Remove(ev.Pos)
	return true
}

func (s *activeSet) contains(ev *ir.PlaybackEvent) bool {
	cur, found := s.tree.Get(ev.Pos)
	return found && cur == ev
}

func (s *activeSet) len() int {
	return s.tree.Size()
}

// events returns the members in timeline order.
func (s *activeSet) events() []*ir.PlaybackEvent {
	return s.tree.Values()
}

func (s *activeSet) clear() {
	s.tree.Clear()
}
