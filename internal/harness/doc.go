// Package harness runs end-to-end scenarios against the engine.
//
// A scenario seeds a fresh in-memory store, drives the engine through a
// flow of worker actions and then checks the recorded trace and the
// final database state.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	videos: 20                  # catalogue size
//	template: seq.json          # optional, relative to the scenario file
//	policy:                     # optional overrides of the engine policy
//	  default_lives: 1
//	flow:
//	  - op: allocate
//	    worker: w1
//	    as: first
//	    expect:
//	      case: OK
//	      result: { level: 1 }
//	  - op: answer
//	    worker: w1
//	    level: first
//	    correct: false
//	assertions:
//	  - type: trace_count
//	    op: allocate
//	    case: OK
//	    count: 1
//	  - type: final_state
//	    table: users
//	    where: { worker_id: w1 }
//	    expect: { num_lives: 1 }
//
// # Operations
//
//   - user: look up the worker's next level number
//   - allocate: allocate a level and remember it under the "as" alias
//   - answer: submit generated responses for a level (correct, tamper)
//   - submit: record duration_msec and feedback for a level
//   - backdate: move a level's creation time back by a duration
//   - reconcile: recompute every video's label count
//
// Each step records a trace event whose case is OK or the engine error
// kind. Faults that are not engine errors abort the run.
//
// # Assertion Types
//
//   - trace_contains: an event with the given op (and case, worker) exists
//   - trace_order: ops first appear in the given order
//   - trace_count: an op (optionally with a case) appears exactly N times
//   - final_state: rows of a table match, by count or by expected values
//
// The trace is deterministic: it carries level ids and counts but no
// video urls, so it can be compared against golden files.
package harness
