package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/librarian/internal/library"
)

func TestStatsStore_FailureKeepsLastTotals(t *testing.T) {
	var s StatsStore
	assert.False(t, s.Snapshot().HasData)

	s.Update(library.Totals{Books: 12, Topics: 3}, nil)
	boom := errors.New("timeout")
	s.Update(library.Totals{}, boom)
	s.Update(library.Totals{}, boom)

	snap := s.Snapshot()
	assert.True(t, snap.HasData)
	assert.Equal(t, library.Totals{Books: 12, Topics: 3}, snap.Totals)
	assert.ErrorIs(t, snap.LastError, boom)
	assert.Equal(t, 2, snap.ConsecutiveFailures)

	s.Update(library.Totals{Books: 13, Topics: 3}, nil)
	snap = s.Snapshot()
	assert.NoError(t, snap.LastError)
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.Equal(t, 13, snap.Totals.Books)
}
