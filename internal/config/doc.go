// Package config loads librarian's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/librarian/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but a field is missing, empty or out of range, use
//     that field's default
//
// # Default Values
//
//   - API base: http://127.0.0.1:3000
//   - Page size: 10 (at most 100)
//   - Search debounce: 300ms
//   - Request timeout: 30s
//   - Log file: ~/.local/state/librarian/librarian.log
//   - Session file: ~/.config/librarian/session.toml
//   - Delete policy: step-back
//   - Refetch after commit: true
//
// # TOML Format
//
//	api_base = "http://127.0.0.1:3000"
//	page_size = 10
//	search_debounce_ms = 300
//	request_timeout_seconds = 30
//	log_file = "~/.local/state/librarian/librarian.log"
//	session_file = "~/.config/librarian/session.toml"
//	delete_policy = "step-back"   # or "trust-local", "refetch"
//	refetch_after_commit = true
//
// Every field is optional. Tilde expansion is applied to both file paths.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unknown delete policies
//
// A missing config file is not an error, so librarian works against a
// local API without any setup.
//
// Config is loaded once at startup and passed down by value. There is no
// global state.
package config
