package engine

import (
	"fmt"

	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
)

// ActionFactory builds the native interval for an action item.
type ActionFactory func(item ir.ItemSpec) (interval.Interval, error)

// Load appends a schedule item tree: groups become push/pop pairs, actions
// are built by factory and registered in the arena, externals are added by
// handle. On error the definitions appended so far are kept.
func (s *Scheduler) Load(items []ir.ItemSpec, factory ActionFactory) error {
	for i, item := range items {
		if err := s.loadItem(item, factory); err != nil {
			return fmt.Errorf("item %d (%s %q): %w", i, item.Kind, item.Name, err)
		}
	}
	return nil
}

func (s *Scheduler) loadItem(item ir.ItemSpec, factory ActionFactory) error {
	relTo, err := ir.ParseRelativeStart(item.Anchor)
	if err != nil {
		return err
	}

	switch item.Kind {
	case ir.ItemGroup:
		if _, err := s.PushLevel(item.At, relTo); err != nil {
			return err
		}
		if err := s.Load(item.Items, factory); err != nil {
			return err
		}
		_, err := s.PopLevel()
		return err

	case ir.ItemAction:
		if factory == nil {
			return fmt.Errorf("no action factory")
		}
		iv, err := factory(item)
		if err != nil {
			return err
		}
		id := s.arena.Register(iv)
		_, err = s.AddAction(id, item.At, relTo)
		// The schedule holds its own reference from here on.
		if rerr := s.arena.Release(id); err == nil {
			err = rerr
		}
		return err

	case ir.ItemExternal:
		_, err := s.AddExternal(item.Handle, item.Name, item.Duration, item.IsOpenEnded(), item.At, relTo)
		return err

	default:
		return fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

// NewFromSpec builds a scheduler for spec. A spec precision of zero uses
// the scheduler default; opts are applied after it.
func NewFromSpec(arena *interval.Arena, spec ir.ScheduleSpec, factory ActionFactory, opts ...Option) (*Scheduler, error) {
	if spec.Precision != 0 {
		if !ir.ValidPrecision(spec.Precision) {
			return nil, fmt.Errorf("schedule %q: precision %v is not positive and finite", spec.Name, spec.Precision)
		}
		opts = append([]Option{WithPrecision(spec.Precision)}, opts...)
	}
	s := New(arena, spec.Name, opts...)
	if err := s.Load(spec.Items, factory); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("schedule %q: %w", spec.Name, err)
	}
	return s, nil
}

// FuncFactory builds interval.Func leaves from item name, duration and
// open-endedness, wiring every callback to fn.
func FuncFactory(fn func(name string, t float64, event ir.EventType)) ActionFactory {
	return func(item ir.ItemSpec) (interval.Interval, error) {
		name := item.Name
		return interval.NewFunc(name, item.Duration, item.IsOpenEnded(), func(t float64, event ir.EventType) {
			if fn != nil {
				fn(name, t, event)
			}
		}), nil
	}
}
