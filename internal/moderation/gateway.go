// Package moderation is the admin-facing workflow over the backend's
// moderation endpoints: listing by lifecycle filter, creating listings under
// the configured initial-status policy, approving, rejecting and removing
// them, and refreshing the dashboard. The server remains the authority on
// every transition; this gateway validates what it can locally and surfaces
// the backend's typed rejections unchanged.
package moderation

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/InternHub-KE/client/internal/backend"
	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/metrics"
	"github.com/InternHub-KE/client/internal/session"
	"github.com/InternHub-KE/client/internal/stats"
	"github.com/InternHub-KE/client/internal/validation"
)

// AdminAPI is the slice of the backend client the gateway drives.
type AdminAPI interface {
	AdminOpportunities(ctx context.Context, filter string) ([]opportunities.Opportunity, error)
	CreateOpportunity(ctx context.Context, params backend.CreateOpportunityParams) (opportunities.Opportunity, error)
	ApproveOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error)
	RejectOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id string) error
}

// SessionReader exposes the current session for the advisory role check.
type SessionReader interface {
	Snapshot() session.Snapshot
}

// ErrRemovalNotConfirmed is returned when Remove runs without an affirmative
// confirmation. Deletion is irreversible, so the gateway refuses to guess.
var ErrRemovalNotConfirmed = errors.New("removal not confirmed")

// Gateway coordinates the moderation workflow. It retains the last dashboard
// it produced: every successful mutation re-reads the listing and the stats,
// so the retained view tracks the backend without the caller re-listing.
type Gateway struct {
	api          AdminAPI
	stats        *stats.Aggregator
	sessions     SessionReader
	createStatus opportunities.Status
	logger       zerolog.Logger

	mu     sync.Mutex
	filter string
	latest Dashboard
	seen   bool
}

// Dashboard is one refresh of the moderation screen: the listing for the
// requested filter plus the latest stats snapshot when one is available.
type Dashboard struct {
	Opportunities []opportunities.Opportunity
	Stats         *backend.StatsSnapshot
}

// NewGateway wires the gateway. createStatus is the policy-selected initial
// status for new listings, already validated by configuration loading.
func NewGateway(api AdminAPI, aggregator *stats.Aggregator, sessions SessionReader, createStatus opportunities.Status, logger zerolog.Logger) *Gateway {
	return &Gateway{
		api:          api,
		stats:        aggregator,
		sessions:     sessions,
		createStatus: createStatus,
		logger:       logger.With().Str("component", "moderation").Logger(),
		filter:       opportunities.FilterAll,
	}
}

// List fetches the moderation listing for one lifecycle filter. The filter is
// validated locally; the backend filters server-side.
func (g *Gateway) List(ctx context.Context, filter string) ([]opportunities.Opportunity, error) {
	if !opportunities.ValidFilter(filter) {
		return nil, validation.NewFieldError("filter", "must be a lifecycle status or \"all\"")
	}
	g.warnIfNotAdmin()
	listed, err := g.api.AdminOpportunities(ctx, filter)
	if err != nil {
		return nil, err
	}
	g.retain(filter, listed)
	return listed, nil
}

// Create normalizes and validates the draft, then submits it with the
// policy-selected initial status. The created record is returned as the
// server stored it.
func (g *Gateway) Create(ctx context.Context, draft opportunities.Draft) (opportunities.Opportunity, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return opportunities.Opportunity{}, err
	}
	g.warnIfNotAdmin()

	created, err := g.api.CreateOpportunity(ctx, backend.CreateOpportunityParams{
		Draft:  draft,
		Status: g.createStatus,
	})
	if err != nil {
		metrics.ModerationMutationsTotal.WithLabelValues("create", "error").Inc()
		return opportunities.Opportunity{}, err
	}
	metrics.ModerationMutationsTotal.WithLabelValues("create", "ok").Inc()
	g.logger.Info().Str("id", created.ID).Str("status", string(created.Status)).Msg("created opportunity")
	g.refreshAfterMutation(ctx)
	return created, nil
}

// Approve moves one record to approved. A record the server considers
// already settled comes back as a ConflictError, which is passed through for
// the caller to present.
func (g *Gateway) Approve(ctx context.Context, id string) (opportunities.Opportunity, error) {
	return g.mutate(ctx, id, "approve", g.api.ApproveOpportunity)
}

// Reject moves one record to rejected.
func (g *Gateway) Reject(ctx context.Context, id string) (opportunities.Opportunity, error) {
	return g.mutate(ctx, id, "reject", g.api.RejectOpportunity)
}

func (g *Gateway) mutate(ctx context.Context, id, action string, fn func(context.Context, string) (opportunities.Opportunity, error)) (opportunities.Opportunity, error) {
	if id == "" {
		return opportunities.Opportunity{}, validation.NewFieldError("id", "is required")
	}
	g.warnIfNotAdmin()

	updated, err := fn(ctx, id)
	if err != nil {
		metrics.ModerationMutationsTotal.WithLabelValues(action, "error").Inc()
		return opportunities.Opportunity{}, err
	}
	metrics.ModerationMutationsTotal.WithLabelValues(action, "ok").Inc()
	g.logger.Info().Str("id", id).Str("action", action).Str("status", string(updated.Status)).Msg("moderated opportunity")
	g.refreshAfterMutation(ctx)
	return updated, nil
}

// Remove permanently deletes one record. confirm is consulted before any
// network call; a nil or negative confirmation aborts with
// ErrRemovalNotConfirmed.
func (g *Gateway) Remove(ctx context.Context, id string, confirm func() bool) error {
	if id == "" {
		return validation.NewFieldError("id", "is required")
	}
	if confirm == nil || !confirm() {
		return ErrRemovalNotConfirmed
	}
	g.warnIfNotAdmin()

	if err := g.api.DeleteOpportunity(ctx, id); err != nil {
		metrics.ModerationMutationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.ModerationMutationsTotal.WithLabelValues("delete", "ok").Inc()
	g.logger.Info().Str("id", id).Msg("deleted opportunity")
	g.refreshAfterMutation(ctx)
	return nil
}

// Refresh fetches the listing and the stats snapshot concurrently; the two
// requests are independent and complete in either order. A stats failure
// degrades the dashboard to its last known numbers rather than failing the
// whole refresh; a listing failure fails it, since the listing is the screen.
func (g *Gateway) Refresh(ctx context.Context, filter string) (Dashboard, error) {
	if !opportunities.ValidFilter(filter) {
		return Dashboard{}, validation.NewFieldError("filter", "must be a lifecycle status or \"all\"")
	}
	g.warnIfNotAdmin()

	var listed []opportunities.Opportunity
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		l, err := g.api.AdminOpportunities(gctx, filter)
		if err != nil {
			return err
		}
		listed = l
		return nil
	})
	grp.Go(func() error {
		if _, err := g.stats.Refresh(gctx); err != nil {
			g.logger.Warn().Err(err).Msg("dashboard stats unavailable")
		}
		return nil
	})

	if err := grp.Wait(); err != nil {
		return Dashboard{}, err
	}
	g.retain(filter, listed)
	dashboard, _ := g.Latest()
	return dashboard, nil
}

// Latest returns the dashboard retained by the most recent listing, refresh
// or post-mutation refresh. ok is false until a listing has completed.
func (g *Gateway) Latest() (Dashboard, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest, g.seen
}

// retain records the listing and the freshest stats snapshot as the current
// dashboard, and remembers the filter for post-mutation refreshes.
func (g *Gateway) retain(filter string, listed []opportunities.Opportunity) {
	dash := Dashboard{Opportunities: listed}
	if snap, _, ok := g.stats.Latest(); ok {
		dash.Stats = &snap
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter = filter
	g.latest = dash
	g.seen = true
}

// refreshAfterMutation re-reads the listing and the stats after a successful
// mutation. The two requests run concurrently and complete in either order;
// a failure here is logged, never surfaced, since the mutation itself
// already went through.
func (g *Gateway) refreshAfterMutation(ctx context.Context) {
	g.mu.Lock()
	filter := g.filter
	g.mu.Unlock()

	var (
		wg     sync.WaitGroup
		listed []opportunities.Opportunity
		listOK bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		l, err := g.api.AdminOpportunities(ctx, filter)
		if err != nil {
			g.logger.Warn().Err(err).Msg("post-mutation list refresh failed")
			return
		}
		listed, listOK = l, true
	}()
	go func() {
		defer wg.Done()
		if _, err := g.stats.Refresh(ctx); err != nil {
			g.logger.Warn().Err(err).Msg("post-mutation stats refresh failed")
		}
	}()
	wg.Wait()

	if listOK {
		g.retain(filter, listed)
	}
}

// warnIfNotAdmin logs when the current session lacks the admin role. The
// check is advisory: the server enforces authorization and the request is
// still sent, so a stale local profile cannot lock an admin out.
func (g *Gateway) warnIfNotAdmin() {
	if g.sessions == nil {
		return
	}
	snap := g.sessions.Snapshot()
	if snap.User == nil || !snap.User.IsAdmin() {
		g.logger.Warn().Msg("current session lacks the admin role; the server will decide")
	}
}
