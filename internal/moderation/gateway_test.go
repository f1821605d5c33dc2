package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InternHub-KE/client/internal/backend"
	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/domain/users"
	"github.com/InternHub-KE/client/internal/session"
	"github.com/InternHub-KE/client/internal/stats"
	"github.com/InternHub-KE/client/internal/validation"
)

type fakeAdminAPI struct {
	mu          sync.Mutex
	listCalls   []string
	created     []backend.CreateOpportunityParams
	deleted     []string
	statsCalls  int
	listErr     error
	statsErr    error
	approveErr  error
	listResult  []opportunities.Opportunity
	statsResult backend.StatsSnapshot
}

func (f *fakeAdminAPI) AdminOpportunities(ctx context.Context, filter string) ([]opportunities.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, filter)
	return f.listResult, f.listErr
}

func (f *fakeAdminAPI) AdminStats(ctx context.Context) (backend.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	return f.statsResult, f.statsErr
}

func (f *fakeAdminAPI) CreateOpportunity(ctx context.Context, params backend.CreateOpportunityParams) (opportunities.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	return opportunities.Opportunity{ID: "opp-1", Title: params.Title, Status: params.Status}, nil
}

func (f *fakeAdminAPI) ApproveOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error) {
	if f.approveErr != nil {
		return opportunities.Opportunity{}, f.approveErr
	}
	return opportunities.Opportunity{ID: id, Status: opportunities.StatusApproved}, nil
}

func (f *fakeAdminAPI) RejectOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error) {
	return opportunities.Opportunity{ID: id, Status: opportunities.StatusRejected}, nil
}

func (f *fakeAdminAPI) DeleteOpportunity(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func adminSession() *session.Store {
	return session.NewStore(&session.Session{
		Token: "tok-admin",
		User:  users.UserProfile{ID: "u-1", Email: "admin@example.com", Role: users.RoleAdmin},
	})
}

func newTestGateway(api *fakeAdminAPI, createStatus opportunities.Status) *Gateway {
	aggregator := stats.NewAggregator(api, zerolog.Nop())
	return NewGateway(api, aggregator, adminSession(), createStatus, zerolog.Nop())
}

func validDraft() opportunities.Draft {
	return opportunities.Draft{
		Title:               "  Backend Intern ",
		Company:             "Acme",
		Description:         "Build things",
		Requirements:        []string{" Go ", "", "SQL"},
		Location:            "Nairobi",
		Positions:           2,
		ApplicationDeadline: time.Now().AddDate(0, 1, 0),
		Type:                opportunities.TypeInternship,
		Category:            "IT",
	}
}

func TestListValidatesFilter(t *testing.T) {
	api := &fakeAdminAPI{}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.List(context.Background(), "bogus")

	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.listCalls, "invalid filters never reach the network")

	for _, filter := range []string{opportunities.FilterAll, "pending", "active", "closed"} {
		_, err := gateway.List(context.Background(), filter)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"all", "pending", "active", "closed"}, api.listCalls)
}

func TestCreateAppliesPolicyStatus(t *testing.T) {
	api := &fakeAdminAPI{}
	gateway := newTestGateway(api, opportunities.StatusActive)

	created, err := gateway.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, opportunities.StatusActive, created.Status)

	require.Len(t, api.created, 1)
	sent := api.created[0]
	assert.Equal(t, opportunities.StatusActive, sent.Status)
	assert.Equal(t, "Backend Intern", sent.Title, "draft is normalized before submission")
	assert.Equal(t, []string{"Go", "SQL"}, sent.Requirements)
	assert.Equal(t, opportunities.SourceManual, sent.Source)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	api := &fakeAdminAPI{}
	gateway := newTestGateway(api, opportunities.StatusPending)

	draft := validDraft()
	draft.Title = "   "
	draft.Positions = 0

	_, err := gateway.Create(context.Background(), draft)

	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.created)
}

func TestApproveSurfacesConflict(t *testing.T) {
	api := &fakeAdminAPI{approveErr: &backend.ConflictError{Message: "Opportunity already rejected"}}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.Approve(context.Background(), "opp-1")

	var conflict *backend.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Opportunity already rejected", conflict.Message)
}

func TestRejectReturnsUpdatedRecord(t *testing.T) {
	api := &fakeAdminAPI{}
	gateway := newTestGateway(api, opportunities.StatusPending)

	updated, err := gateway.Reject(context.Background(), "opp-2")
	require.NoError(t, err)
	assert.Equal(t, opportunities.StatusRejected, updated.Status)

	var verr *validation.ValidationError
	_, err = gateway.Reject(context.Background(), "")
	require.ErrorAs(t, err, &verr)
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	api := &fakeAdminAPI{}
	gateway := newTestGateway(api, opportunities.StatusPending)

	err := gateway.Remove(context.Background(), "opp-1", nil)
	assert.ErrorIs(t, err, ErrRemovalNotConfirmed)

	err = gateway.Remove(context.Background(), "opp-1", func() bool { return false })
	assert.ErrorIs(t, err, ErrRemovalNotConfirmed)
	assert.Empty(t, api.deleted)

	err = gateway.Remove(context.Background(), "opp-1", func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"opp-1"}, api.deleted)
}

func TestMutationRefreshesListAndStats(t *testing.T) {
	api := &fakeAdminAPI{
		listResult:  []opportunities.Opportunity{{ID: "opp-9", Status: opportunities.StatusApproved}},
		statsResult: backend.StatsSnapshot{TotalOpportunities: 3},
	}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.List(context.Background(), "pending")
	require.NoError(t, err)

	_, err = gateway.Approve(context.Background(), "opp-9")
	require.NoError(t, err)

	api.mu.Lock()
	assert.Equal(t, []string{"pending", "pending"}, api.listCalls, "the mutation re-reads the current filter")
	assert.Equal(t, 1, api.statsCalls)
	api.mu.Unlock()

	dashboard, ok := gateway.Latest()
	require.True(t, ok)
	require.Len(t, dashboard.Opportunities, 1)
	require.NotNil(t, dashboard.Stats)
	assert.Equal(t, 3, dashboard.Stats.TotalOpportunities)
}

func TestCreateAndRemoveTriggerRefresh(t *testing.T) {
	api := &fakeAdminAPI{statsResult: backend.StatsSnapshot{TotalOpportunities: 1}}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.Create(context.Background(), validDraft())
	require.NoError(t, err)
	err = gateway.Remove(context.Background(), "opp-1", func() bool { return true })
	require.NoError(t, err)

	api.mu.Lock()
	assert.Len(t, api.listCalls, 2, "each mutation refreshes the listing")
	assert.Equal(t, 2, api.statsCalls, "each mutation refreshes the stats")
	api.mu.Unlock()
}

func TestFailedMutationSkipsRefresh(t *testing.T) {
	api := &fakeAdminAPI{approveErr: &backend.ConflictError{Message: "already settled"}}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.Approve(context.Background(), "opp-1")
	require.Error(t, err)

	api.mu.Lock()
	assert.Empty(t, api.listCalls)
	assert.Zero(t, api.statsCalls)
	api.mu.Unlock()
}

func TestMutationSurvivesRefreshFailure(t *testing.T) {
	api := &fakeAdminAPI{
		listErr:  &backend.ServerError{Status: 500, Message: "boom"},
		statsErr: &backend.ServerError{Status: 500, Message: "boom"},
	}
	gateway := newTestGateway(api, opportunities.StatusPending)

	updated, err := gateway.Approve(context.Background(), "opp-1")
	require.NoError(t, err, "a failed follow-up refresh never fails the mutation")
	assert.Equal(t, opportunities.StatusApproved, updated.Status)
}

func TestRefreshFetchesListAndStats(t *testing.T) {
	api := &fakeAdminAPI{
		listResult:  []opportunities.Opportunity{{ID: "opp-1", Status: opportunities.StatusPending}},
		statsResult: backend.StatsSnapshot{TotalOpportunities: 12, ActiveOpportunities: 4},
	}
	gateway := newTestGateway(api, opportunities.StatusPending)

	dashboard, err := gateway.Refresh(context.Background(), opportunities.FilterAll)
	require.NoError(t, err)
	require.Len(t, dashboard.Opportunities, 1)
	require.NotNil(t, dashboard.Stats)
	assert.Equal(t, 12, dashboard.Stats.TotalOpportunities)
	assert.Equal(t, 1, api.statsCalls)
}

func TestRefreshToleratesStatsFailure(t *testing.T) {
	api := &fakeAdminAPI{
		listResult: []opportunities.Opportunity{{ID: "opp-1"}},
		statsErr:   &backend.ServerError{Status: 502, Message: "bad gateway"},
	}
	gateway := newTestGateway(api, opportunities.StatusPending)

	dashboard, err := gateway.Refresh(context.Background(), "pending")
	require.NoError(t, err, "a stats failure must not fail the refresh")
	assert.Len(t, dashboard.Opportunities, 1)
	assert.Nil(t, dashboard.Stats, "no snapshot has ever succeeded")
}

func TestRefreshKeepsStaleStatsOnFailure(t *testing.T) {
	api := &fakeAdminAPI{
		listResult:  []opportunities.Opportunity{{ID: "opp-1"}},
		statsResult: backend.StatsSnapshot{TotalOpportunities: 7},
	}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.Refresh(context.Background(), "pending")
	require.NoError(t, err)

	api.mu.Lock()
	api.statsErr = &backend.ServerError{Status: 500, Message: "boom"}
	api.mu.Unlock()

	dashboard, err := gateway.Refresh(context.Background(), "pending")
	require.NoError(t, err)
	require.NotNil(t, dashboard.Stats)
	assert.Equal(t, 7, dashboard.Stats.TotalOpportunities, "previous snapshot survives a failed refresh")
}

func TestRefreshFailsWhenListingFails(t *testing.T) {
	api := &fakeAdminAPI{listErr: &backend.PermissionError{Status: 403, Message: "Admin access required"}}
	gateway := newTestGateway(api, opportunities.StatusPending)

	_, err := gateway.Refresh(context.Background(), "pending")

	var perm *backend.PermissionError
	require.ErrorAs(t, err, &perm)
}
