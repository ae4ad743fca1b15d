// Package harness plays schedules under test and checks the callbacks they
// deliver.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	file: ../schedules/intro.cue   # or an inline `schedule:` tree
//	schedule_name: intro
//	precision: 1000
//	steps:
//	  - op: initialize
//	    t: 0.5
//	  - op: step
//	    t: 2
//	  - op: finalize
//	assertions:
//	  - type: callback_order
//	    order: ["fade:initialize", "fade:finalize"]
//	  - type: active
//	    names: []
//
// # Assertion Types
//
//   - callback_count: an action received exactly N callbacks (of one event type if given)
//   - callback_order: "name:event" entries appear in order
//   - active: the final active set, in timeline order
//   - duration: the compiled schedule duration
//   - no_callbacks: a step delivered nothing
//
// # Deterministic Testing
//
// Native actions are no-op leaves and the trace comes from the scheduler's
// observer, stamped by a logical clock. External callbacks are popped by a
// simulated host after every step, in queue order. Run records into an
// in-memory store under a fixed run ID, so traces are byte-identical across
// runs and can be compared against golden files.
//
// Replay re-executes the commands of a recorded run and compares trace
// hashes, detecting any behavioral drift in the engine.
package harness
