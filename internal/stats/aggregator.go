// Package stats holds the dashboard aggregate fetched from the backend. The
// numbers are server-computed; this package only fetches, replaces and serves
// the latest snapshot.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/InternHub-KE/client/internal/backend"
)

// Fetcher is the slice of the backend client the aggregator needs.
type Fetcher interface {
	AdminStats(ctx context.Context) (backend.StatsSnapshot, error)
}

// Aggregator caches the most recent stats snapshot. Refresh replaces the
// snapshot wholesale; a failed refresh leaves the previous one in place so a
// flaky endpoint degrades to stale numbers instead of a blank dashboard.
type Aggregator struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu        sync.RWMutex
	snapshot  backend.StatsSnapshot
	fetchedAt time.Time
	ok        bool
}

// NewAggregator wires the aggregator to its backend fetcher.
func NewAggregator(fetcher Fetcher, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "stats").Logger(),
	}
}

// Refresh fetches a fresh snapshot and replaces the cached one. On failure
// the cached snapshot is untouched and the error is returned.
func (a *Aggregator) Refresh(ctx context.Context) (backend.StatsSnapshot, error) {
	snap, err := a.fetcher.AdminStats(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("stats refresh failed; keeping previous snapshot")
		return backend.StatsSnapshot{}, err
	}

	a.mu.Lock()
	a.snapshot = snap
	a.fetchedAt = time.Now().UTC()
	a.ok = true
	a.mu.Unlock()
	return snap, nil
}

// Latest returns the cached snapshot and when it was fetched. ok is false
// before the first successful refresh.
func (a *Aggregator) Latest() (snap backend.StatsSnapshot, fetchedAt time.Time, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot, a.fetchedAt, a.ok
}
