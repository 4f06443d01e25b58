// Package leadsheet implements the structural leadsheet document model.
//
// A Store holds an ordered sequence of bars, the Sections (name + time
// signature) that partition them, and the ordinary items (chord symbols,
// annotations) positioned inside them. Callers edit it through structural
// operations; every operation is all-or-nothing.
//
// # Item model
//
// Items are immutable value snapshots. The Store is the only holder of the
// authoritative collection and identifies items by stable ItemID handles that
// are never reused. Passing a snapshot back to an operation resolves it by ID.
//
// # Invariants
//
// After every committed operation:
//   - bar 0 owns exactly one Section, which can never be removed or moved
//   - no two Sections share a bar or a (case-insensitive) name
//   - every item lies in [0, Size) and its beat is normalized to the time
//     signature of the Section governing its bar
//   - no two ordinary items are equal (same position and payload)
//   - items are totally ordered: position, then Sections first, then kind,
//     payload text and ID
//
// # Change protocol
//
// Each operation first computes the complete list of Events describing it on
// a scratch copy. Every registered ChangeListener is asked to Authorize each
// event; a single Veto aborts the operation with a *VetoError and no state
// change. Otherwise the scratch state is swapped in and listeners are told
// via Changed. Events carry enough before/after data to be inverted exactly
// (see Inverse and Store.ApplyEvents), which is what the undo manager uses.
//
// # Concurrency
//
// A Store is single-writer and performs no locking. Queries may be called
// from inside listener callbacks on the same goroutine; mutations may not
// (ErrReentrantEdit).
package leadsheet
