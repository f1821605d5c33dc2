package stats

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InternHub-KE/client/internal/backend"
)

type scriptedFetcher struct {
	snapshots []backend.StatsSnapshot
	errs      []error
	calls     int
}

func (s *scriptedFetcher) AdminStats(ctx context.Context) (backend.StatsSnapshot, error) {
	i := s.calls
	s.calls++
	var snap backend.StatsSnapshot
	if i < len(s.snapshots) {
		snap = s.snapshots[i]
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return snap, err
}

func TestAggregatorReplacesWholesale(t *testing.T) {
	fetcher := &scriptedFetcher{
		snapshots: []backend.StatsSnapshot{
			{TotalOpportunities: 10, ActiveOpportunities: 3, PendingApplications: 5, TotalUsers: 100},
			{TotalOpportunities: 11, ActiveOpportunities: 0, PendingApplications: 0, TotalUsers: 101},
		},
	}
	agg := NewAggregator(fetcher, zerolog.Nop())

	_, _, ok := agg.Latest()
	assert.False(t, ok, "no snapshot before the first refresh")

	_, err := agg.Refresh(context.Background())
	require.NoError(t, err)

	_, err = agg.Refresh(context.Background())
	require.NoError(t, err)

	snap, fetchedAt, ok := agg.Latest()
	require.True(t, ok)
	assert.False(t, fetchedAt.IsZero())
	// The second snapshot replaces the first entirely, zeroes included.
	assert.Equal(t, backend.StatsSnapshot{TotalOpportunities: 11, TotalUsers: 101}, snap)
}

func TestAggregatorKeepsSnapshotOnFailure(t *testing.T) {
	fetcher := &scriptedFetcher{
		snapshots: []backend.StatsSnapshot{{TotalOpportunities: 10}, {}},
		errs:      []error{nil, &backend.ServerError{Status: 500, Message: "boom"}},
	}
	agg := NewAggregator(fetcher, zerolog.Nop())

	_, err := agg.Refresh(context.Background())
	require.NoError(t, err)

	_, err = agg.Refresh(context.Background())
	require.Error(t, err)

	snap, _, ok := agg.Latest()
	require.True(t, ok)
	assert.Equal(t, 10, snap.TotalOpportunities)
}
