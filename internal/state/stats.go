package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/librarian/internal/library"
)

// StatsSnapshot is the latest dashboard counters.
type StatsSnapshot struct {
	Totals              library.Totals
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// StatsStore holds the dashboard counters shared by the poller and the UI.
// A failed refresh keeps the last good totals.
type StatsStore struct {
	mu       sync.RWMutex
	snapshot StatsSnapshot
}

// Update records a refresh result.
func (s *StatsStore) Update(totals library.Totals, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot = StatsSnapshot{
		Totals:      totals,
		HasData:     true,
		LastUpdated: time.Now(),
	}
}

// Snapshot returns a copy of the current counters.
func (s *StatsStore) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if snap.LastError != nil {
		snap.LastError = fmt.Errorf("%w", snap.LastError)
	}
	return snap
}
