package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/librarian/internal/library"
)

// Snapshot represents the cached page available to the UI.
type Snapshot[T library.Entity] struct {
	Items               []T
	CurrentPage         int
	TotalPages          int
	TotalItems          int   // -1 when the server did not report it
	Query               Query // the query Items were fetched for
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the API has failed for multiple fetches in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the cached item with id.
func (s Snapshot[T]) Find(id string) (T, bool) {
	for _, item := range s.Items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Store holds the page cache for one list. The zero value is an empty
// cache on page 1 of 1.
type Store[T library.Entity] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
}

// Replace swaps in a freshly fetched page.
func (s *Store[T]) Replace(q Query, page library.Page[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot[T]{
		Items:       cloneItems(page.Data),
		CurrentPage: page.Page,
		TotalPages:  page.TotalPages,
		TotalItems:  page.Total,
		Query:       q,
		HasData:     true,
		LastUpdated: time.Now(),
	}
}

// Fail clears the cache after a failed fetch and records err.
func (s *Store[T]) Fail(q Query, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures := s.snapshot.ConsecutiveFailures + 1
	s.snapshot = Snapshot[T]{
		CurrentPage:         q.Page,
		TotalPages:          1,
		Query:               q,
		LastUpdated:         time.Now(),
		LastError:           err,
		ConsecutiveFailures: failures,
	}
}

// ReplaceItem swaps the cached item with the same id in place. It reports
// false when the item is not on the cached page.
func (s *Store[T]) ReplaceItem(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.snapshot.Items, func(cur T) bool {
		return cur.EntityID() == item.EntityID()
	})
	if idx < 0 {
		return false
	}
	s.snapshot.Items[idx] = item
	return true
}

// RemoveItem drops the cached item with id. It returns the number of items
// left on the page.
func (s *Store[T]) RemoveItem(id string) (remaining int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.snapshot.Items)
	s.snapshot.Items = slices.DeleteFunc(s.snapshot.Items, func(cur T) bool {
		return cur.EntityID() == id
	})
	removed := before - len(s.snapshot.Items)
	if removed == 0 {
		return len(s.snapshot.Items), false
	}
	if s.snapshot.TotalItems > 0 {
		s.snapshot.TotalItems -= removed
	}
	return len(s.snapshot.Items), true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Items = cloneItems(s.snapshot.Items)
	if snap.CurrentPage < 1 {
		snap.CurrentPage = 1
	}
	if snap.TotalPages < 1 {
		snap.TotalPages = 1
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneItems[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
