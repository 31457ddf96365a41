// Package pool holds every loaded event, keyed by id.
//
// The pool is the events subsystem of the persistence gateway: it writes
// the durable state of its events into a save payload, restores it on
// load, and tracks which events are held by a decision that has not been
// committed yet.
//
// Holds are volatile. A Reserved or Selected status that survives in a
// slot without a matching hold is stale (the process restarted between
// Decide and Commit) and is demoted to Enabled by Reconcile.
package pool
