// Package app is the composition root for librarian.
//
// # Overview
//
// Open wires configuration, preferences, the persisted session, the log
// file and the API client into an Env. Every command builds on an Env; Run
// additionally creates one listsync.List per collection, starts the stats
// poller and hands everything to the TUI.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()       Read config.toml
//	       ├─────> prefs.Load()        Theme, page size, saved sorts
//	       ├─────> logtail.Open()      slog text handler on the log file
//	       ├─────> session.Load()      Token pair from session.toml
//	       └─────> library.NewClient() Client bound to the session
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> RequireLogin()      Refresh an expired token up front
//	       ├─────> listsync.New() x4   Books, topics, issues, users
//	       ├─────> StartStatsPoller()  Dashboard counters in the background
//	       └─────> ui.Run()            Start TUI (blocks)
//
// # Stats Polling
//
// The poller refreshes total-books and total-topics every 30 seconds while
// a session exists. Consecutive failures double the delay up to five
// minutes. A failed refresh keeps the last good counters on screen.
//
// # Error Handling
//
// Fatal errors (returned from Open and Run):
//   - Config file unreadable or invalid
//   - Log file cannot be created
//   - api_base cannot be parsed
//
// Recoverable errors (logged, startup continues):
//   - Session file unreadable (start signed out)
//   - Saved sort invalid (start unsorted)
//   - Token refresh failure at startup (the TUI asks for a login)
//
// # Usage Example
//
//	env, err := app.Open(app.Options{})
//	if err != nil {
//		return err
//	}
//	defer env.Close()
//	if err := env.RequireLogin(ctx); err != nil {
//		return err
//	}
//	page, err := env.Client.Books().List(ctx, library.ListParams{Offset: 1, Limit: 10})
package app
