// Package engine compiles nested-interval schedules and plays them back in
// either direction.
//
// A Scheduler owns a definition list (groups, native actions and external
// actions, each positioned relative to its level's begin or its previous
// sibling). On demand the list is compiled into a flat, time-sorted
// timeline of Begin, End and Instant events. Playback walks that timeline
// to a target time, keeping the set of active actions and delivering
// callbacks:
//
//	Initialize(t)         cold start at t
//	Step(t)               move forward or backward from the current time
//	Finalize()            run to the end
//	Instant()             jump from start to end in one call
//	ReverseInitialize(t)  cold start at t, arriving from the end
//	ReverseInstant()      jump from end to start
//	ReverseFinalize()     run back to the start
//
// Native actions are invoked synchronously unless a deferred callback is
// already queued. External actions are always deferred; the host drains the
// queue with ServiceQueue, PendingEvent and PopEvent, which preserves
// timeline order across both kinds. A nested schedule left holding deferred
// callbacks defers its parent's later callbacks in turn, and the parent's
// queue operations reach into it.
//
// Determinism:
// All times are quantized to integer ticks before comparison. Events at
// equal times keep declaration order, and the active set iterates in
// timeline order, so the callback sequence for a given schedule and
// sequence of playback requests is fixed.
//
// Failures:
// Caller-contract violations return *ContractError and leave the schedule
// untouched. Broken internal bookkeeping panics with *Fault.
package engine
