// Package harness runs scripted decision scenarios and compares their
// traces with golden files.
//
// # Scenario Format
//
// Scenarios are YAML documents:
//
//	name: filth_contention
//	description: "Higher severity wins a shared slot"
//	token: cycle              # cycle tokens become cycle-1, cycle-2, ...
//	facts: { outside: true }  # initial world
//	default_cooldown: 1
//	max_active: 0
//	events:
//	  - context: player
//	    pack: core
//	    name: Filthy          # the rest is an ordinary event document
//	    severity: 5
//	    global: AdvFilthyStatus
//	    conflicts: [{ type: filth, slots: [32] }]
//	steps:
//	  - cycle: player
//	  - advance: 1.5
//	  - end: core/filthy
//	  - pause: core/rain
//	    expect_error: true
//	assertions:
//	  - type: status
//	    id: core/filthy
//	    expect: Disabled
//
// # Steps
//
// Each step names exactly one action:
//
//   - cycle, decide, commit: run or split a decision cycle for a context;
//     commit takes the oldest uncommitted decision of that context
//   - advance: move game time forward (days)
//   - facts: set world facts
//   - pause, resume, end: operator transitions on an event id
//   - disable_pack, enable_pack: "<context>/<pack>"
//   - save, load, revert: drive the persistence gateway against an
//     in-memory co-save
//
// A step that fails is recorded in the trace. It only fails the run when
// expect_error is not set.
//
// # Assertion Types
//
//   - status: final stored status of id
//   - activated: some cycle activated id
//   - never_together: no step left two of ids running
//   - cycles: committed cycle count of context
//   - max_running: no step left more than count events running in context
//
// Independent of assertions, every step is checked for conflicting events
// running together in any context.
//
// # Deterministic Testing
//
// Game time is a manual clock starting at 0, cycle tokens are sequential
// and decisions are logged to an in-memory SQLite store. The same
// scenario produces a byte-identical trace on every run.
package harness
