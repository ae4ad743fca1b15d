package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sequence/internal/engine"
	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
	"github.com/roach88/sequence/internal/store"
	"github.com/roach88/sequence/internal/testutil"
)

// Option configures a scenario execution.
type Option func(*options)

type options struct {
	store  *store.Store
	runIDs RunIDGenerator
	logger *slog.Logger
}

// WithStore records the run into st instead of a fresh in-memory store.
func WithStore(st *store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(o *options) { o.runIDs = g }
}

// WithLogger sets the logger passed to the scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a scenario against a fresh in-memory store and evaluates
// its assertions. The run ID is fixed (scenario.RunID or
// "test-run-default") so traces are reproducible.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return Execute(context.Background(), scenario,
		WithStore(st),
		WithRunIDs(testutil.NewFixedRunID(scenario.RunID)),
	)
}

// Execute plays a scenario and evaluates its assertions.
//
// Execution flow:
// 1. Resolve the schedule (inline or from its CUE file)
// 2. Play every step, draining deferred callbacks after each
// 3. Record the run when a store is configured
// 4. Evaluate assertions against the result
func Execute(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	spec, err := scenario.ResolveSchedule()
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	result, err := Play(ctx, spec, scenario.Steps, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// Play builds a scheduler for spec and issues steps against it.
//
// Native actions are no-op leaves; the trace is taken from the scheduler's
// callback observer. External callbacks are serviced after every step by a
// simulated host that pops them in queue order.
//
// If a store is configured the run, its commands and its callbacks are
// recorded. A consistency fault inside the scheduler is returned as an error.
func Play(ctx context.Context, spec ir.ScheduleSpec, steps []Step, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	p, err := newPlayer(spec, o.logger)
	if err != nil {
		return nil, err
	}
	defer p.close()

	result := NewResult()
	result.Duration = p.sched.Duration()
	result.ScheduleHash, err = ir.ScheduleHash(spec, ir.NewQuantizer(p.sched.Precision()))
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		ids := o.runIDs
		if ids == nil {
			ids = UUIDv7Generator{}
		}
		result.RunID = ids.Generate()
		run := ir.Run{
			ID:            result.RunID,
			Schedule:      spec,
			ScheduleHash:  result.ScheduleHash,
			Precision:     p.sched.Precision(),
			EngineVersion: ir.EngineVersion,
			SpecVersion:   ir.SpecVersion,
		}
		if err := o.store.WriteRun(ctx, run); err != nil {
			return nil, err
		}
	}

	for i, step := range steps {
		op, err := ir.ParseEventType(step.Op)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		cmd, recs, err := p.exec(op, step.T)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		if o.store != nil {
			if err := o.store.AppendCommand(ctx, result.RunID, cmd); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			if err := o.store.AppendCallbacks(ctx, result.RunID, recs); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}

		for _, rec := range recs {
			result.Trace = append(result.Trace, newTraceEvent(i, rec.Callback))
		}
		o.logger.Debug("step completed",
			"step", i,
			"op", step.Op,
			"t", step.T,
			"callbacks", len(recs),
		)
	}

	for _, n := range p.sched.Active() {
		result.Active = append(result.Active, p.sched.DefName(n))
	}
	return result, nil
}

// player drives one scheduler and collects its callbacks per command.
type player struct {
	arena  *interval.Arena
	sched  *engine.Scheduler
	logger *slog.Logger

	seq     int64 // current command seq
	pending []ir.CallbackRecord
}

func newPlayer(spec ir.ScheduleSpec, logger *slog.Logger) (*player, error) {
	p := &player{arena: interval.NewArena(), logger: logger}
	sched, err := engine.NewFromSpec(p.arena, spec, engine.FuncFactory(nil),
		engine.WithLogger(logger),
		engine.WithObserver(p.observe),
	)
	if err != nil {
		return nil, err
	}
	p.sched = sched
	return p, nil
}

func (p *player) observe(cb ir.Callback) {
	p.pending = append(p.pending, ir.CallbackRecord{Command: p.seq, Callback: cb})
}

// exec issues one playback command, drains the deferred queue, and returns
// the command with the callbacks it caused.
func (p *player) exec(op ir.EventType, t float64) (cmd ir.Command, recs []ir.CallbackRecord, err error) {
	p.seq++
	p.pending = nil
	cmd = ir.Command{Seq: p.seq, Op: op, T: t}

	defer func() {
		if r := recover(); r != nil {
			var fault *engine.Fault
			if e, ok := r.(error); ok && errors.As(e, &fault) {
				err = fault
				return
			}
			panic(r)
		}
	}()

	p.sched.SetT(t, op)
	if err := p.drain(); err != nil {
		return cmd, nil, err
	}
	return cmd, p.pending, nil
}

// drain services the deferred queue, acting as the external host.
func (p *player) drain() error {
	for p.sched.ServiceQueue() {
		ev, ok := p.sched.PendingEvent()
		if !ok {
			return fmt.Errorf("queue reported an external event but none is pending")
		}
		p.logger.Debug("external event", "handle", ev.Handle, "event", ev.String())
		if err := p.sched.PopEvent(); err != nil {
			return err
		}
	}
	return nil
}

func (p *player) close() {
	if err := p.sched.Close(); err != nil {
		p.logger.Warn("close scheduler", "error", err)
	}
}
