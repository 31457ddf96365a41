// Package store provides SQLite-backed durable storage for a host
// running adversity decisions outside a game.
//
// Three tables:
//   - slots: durable slot values per save name (what the game would keep
//     in its own save file)
//   - cosaves: co-save blobs per save name (the persistence gateway's
//     record container, see package saves)
//   - decisions: append-only log of committed decisions, ordered by the
//     controller's sequence number
//
// # Ordering
//
// Decision reads always ORDER BY seq ASC so traces are reproducible.
// Game time never orders anything here: it can run backwards after a load.
package store
