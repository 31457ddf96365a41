// Package engine implements the adversity decision controller.
//
// The controller owns the status state machine transitions of every
// event in a context. It never stores status itself: all reads go through
// event.Event, whose status lives in a durable slot.
//
// DECISION CYCLE:
//
// A cycle is Decide followed by Commit.
//
// Decide:
//  1. Every valid event of the context (packs switched off in the context
//     are skipped) is revalidated with Evaluate. Events whose requirements
//     failed are downgraded to Disabled; if they were running, their
//     cooldown starts. Disabled events whose requirements hold and whose
//     cooldown elapsed become Enabled. Enabled events still cooling down
//     fall back to Disabled.
//  2. Enabled, Active and Paused events are ranked by severity (highest
//     first), ties broken by ascending id.
//  3. The ranked list is walked greedily. Running events (Active/Paused)
//     are retained unless they conflict with an event accepted before
//     them, in which case they are preempted: forced to Disabled with a
//     fresh cooldown. Each Enabled candidate is marked Reserved while it
//     is checked, then either Selected (no conflict with any accepted
//     event) or returned to Enabled.
//
// Commit moves Selected events to Active and records the decision.
//
// Reserved and Selected only exist between Decide and Commit. Events held
// by an uncommitted decision are skipped by later Decide calls, so a
// second pass never selects them twice.
//
// Every decision is stamped with a monotonic sequence number and a cycle
// token (UUIDv7 by default) for log correlation.
package engine
