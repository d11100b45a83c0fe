package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

const (
	defaultStatsInterval = 30 * time.Second
	maxBackoff           = 5 * time.Minute
)

type totaler interface {
	Totals(ctx context.Context) (library.Totals, error)
}

// StartStatsPoller refreshes the dashboard counters in the background until
// ctx is cancelled. Ticks where ready reports false are skipped, and
// failures back off exponentially. It returns immediately.
func StartStatsPoller(ctx context.Context, store *state.StatsStore, client totaler, interval time.Duration, ready func() bool, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if ready != nil && !ready() {
				timer.Reset(interval)
				continue
			}
			refreshStats(ctx, store, client, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refreshStats(ctx context.Context, store *state.StatsStore, client totaler, logger *slog.Logger) {
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	totals, err := client.Totals(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("stats poll failed", "error", err)
	}
	store.Update(totals, err)
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
