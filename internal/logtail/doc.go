// Package logtail writes librarian's log file and reads it back for the
// activity view.
//
// # Writing
//
// Open returns a log/slog logger backed by a text handler that appends to
// the configured log file. The TUI owns the terminal, so nothing is ever
// logged to stdout or stderr while it runs. An empty path yields a logger
// that discards everything.
//
//	logger, closer, err := logtail.Open(cfg.LogFile, slog.LevelInfo)
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer of size N, so
// memory stays O(N) however large the file grows. A missing file is not an
// error and yields no lines.
//
// ParseLine splits a slog text line ("time=... level=INFO msg=... k=v")
// into an Entry with the timestamp, level, message and remaining attributes
// in order. Quoted values are unquoted. Lines in any other format come back
// with only Message and Raw set, so the caller can still show them.
//
// # Error Handling
//
// Read and Open wrap I/O errors with the failing step ("open log",
// "read log"). ParseLine never fails.
package logtail
