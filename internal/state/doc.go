// Package state holds the thread-safe caches shared between fetchers and the
// UI.
//
// # Overview
//
// Store[T] is the page cache for one list: the items of the page last
// fetched, where that page sits in the collection, and the outcome of the
// last fetch. StatsStore holds the dashboard counters refreshed by the
// background poller. Query and SortSpec describe what a list is showing.
//
// # Architecture
//
//	Producer (Coordinator, poller):    Consumer (UI, CLI):
//	┌──────────────────────┐          ┌──────────────────┐
//	│ Lister.List()        │          │                  │
//	│      ↓               │          │                  │
//	│ store.Replace/Fail() │─────────→│ store.Snapshot() │
//	│ store.ReplaceItem()  │ (mutex)  │      ↓           │
//	│ store.RemoveItem()   │          │  render          │
//	└──────────────────────┘          └──────────────────┘
//
// The stores guarantee:
//   - Atomic updates (no partial or torn reads)
//   - No data races (RWMutex-protected access)
//   - Immutable snapshots (items and errors are copied out)
//
// The stores do not decide which fetch result is current. That ordering
// belongs to the caller (see listsync.Coordinator); a store applies
// whatever it is handed.
//
// # Failure Semantics
//
// A failed page fetch clears the cached items and records the error, so a
// page that failed to load is never shown as if it were current. The page
// number is kept so a retry asks for the same page. ConsecutiveFailures
// counts failures in a row and IsOffline reports two or more.
//
// A failed stats refresh keeps the last good totals and only records the
// error, since stale counters are still useful in a header.
//
// # Queries
//
// Query.Validate rejects pages or page sizes below 1 and searches with
// leading whitespace. SortSpec.Toggle implements the column-click cycle:
// a new field starts ascending and a second click on the same field
// flips to descending.
package state
