// Package mediacatalog provides a catalog of media entries (movies and shows)
// with nested user reviews, persisted as a single document through a pluggable
// record store, and an optional poster upload path through a pluggable blob
// store.
//
// Collection Model
//
// Every request works on a snapshot: the full Collection is loaded from the
// RecordStore, transformed in memory by the pure Collection operations, and on
// mutation written back as a whole. There is no lock spanning load and save, so
// two concurrent mutations that start from the same snapshot race and the later
// save wins. Record store implementations only guarantee that a save is never
// observed half written.
//
// Merge Semantics
//
// Create and update payloads arrive as raw Fields. They are checked against a
// declarative Schema and converted into an EntryPatch or ReviewPatch. The patch
// types have no slot for identifiers, creation timestamps or the review list,
// so those keys can never be overwritten by a caller. Unknown attributes are
// kept verbatim on the record and round-trip through storage.
package mediacatalog
