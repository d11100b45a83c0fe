// Package listsync keeps a local, paginated view of a remote collection in
// step with the server.
//
// A List is built from four parts:
//
//   - QueryChannel turns search keystrokes, sort clicks and page changes into
//     an ordered stream of committed queries. Search is debounced and
//     de-duplicated, and input with a leading space is rejected.
//   - Coordinator runs one fetch per committed query. The newest fetch wins
//     by issue order, so a slow reply for an old query can never overwrite
//     the page of a newer one.
//   - EditSession holds a single inline edit as a detached draft.
//   - Reconciler applies confirmed creates, updates and deletes to the page
//     cache and decides whether a refetch is needed.
//
// Deletes go through a Confirmation. There is no other path to the remote
// delete call.
//
// Every method is safe for concurrent use. Views are copies.
package listsync
