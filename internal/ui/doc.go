// Package ui provides the terminal interface for librarian.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds one tab per collection
// (books, topics, issues, users); each tab wraps a listsync.List, which owns
// paging, search, sort, the page cache and edits. The model never fetches
// directly: it calls list operations and re-renders when the list signals a
// change on its Changes channel.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling and commands
//   - tabs.go: Typed tabs and their columns
//   - table.go: Table rendering and the titled box frame
//   - header.go: Header, command bar and paging footer
//   - form.go: Edit and create form modal
//   - modal.go: Modal interface, delete confirmation and login prompt
//   - activity.go: Activity log view over the librarian log file
//   - theme.go, keys.go, help.go: Themes, bindings and the help overlay
//
// # Event Flow
//
//  1. Init starts a waitForChange command per list and loads the first tab
//  2. Keys call list operations (Search, NextPage, ToggleSort, StartEdit...)
//  3. The list fetches in the background and signals Changes
//  4. listChangedMsg re-arms the wait and the next View reads a fresh copy
//  5. Saves, deletes, returns and logins run as commands and report back
//     with a done message
//
// # Key Bindings
//
//   - tab/shift+tab or 1-4: Switch list
//   - j/k, g/G: Move selection
//   - n/p: Next/previous page
//   - /: Search (debounced, esc clears)
//   - s: Cycle sort column and direction
//   - enter: Edit, a: Add (Issue on the issues tab), d: Delete
//   - r: Return the selected issue
//   - R: Reload, l: Activity log, T: Theme, L: Log in/out
//   - q or Ctrl+C: Exit
package ui
