// Package saves implements the persistence gateway: the Save, Load and
// Revert hooks a host calls at its own lifecycle moments.
//
// All adversity state lives in one host record tagged ADVY. The record
// payload is two length-prefixed chunks, contexts first and events
// second, each written by its subsystem as JSON.
//
// Durable slots are not part of the record. The host owns them and saves
// them in its own format; the record only carries what the slots cannot.
package saves
