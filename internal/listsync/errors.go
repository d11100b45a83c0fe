package listsync

import (
	"errors"
	"fmt"

	"github.com/five82/librarian/internal/state"
)

var (
	// ErrSuperseded is returned to the waiter of a fetch whose result was
	// dropped because a newer fetch was issued. It is never shown to users.
	ErrSuperseded = errors.New("superseded by a newer query")

	ErrClosed           = errors.New("list closed")
	ErrNotEditing       = errors.New("no edit in progress")
	ErrCommitInProgress = errors.New("commit in progress")
	ErrConfirmationUsed = errors.New("confirmation already used")
	ErrUnknownItem      = errors.New("item is not on the current page")
	ErrPageOutOfRange   = errors.New("page out of range")
)

// FetchError wraps a failed list fetch.
type FetchError struct {
	Query state.Query
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Query.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CommitError wraps a failed create, update or delete.
type CommitError struct {
	Op  string
	ID  string
	Err error
}

func (e *CommitError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsQuiet reports whether err is an internal outcome that should not be
// surfaced or logged as a failure.
func IsQuiet(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrClosed)
}
