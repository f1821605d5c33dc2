package ingest

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/InternHub-KE/client/internal/backend"
	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/metrics"
	"github.com/InternHub-KE/client/internal/validation"
)

// Creator submits an imported draft into the moderation workflow. The
// moderation gateway satisfies it, so imported listings get the same
// normalization, validation and initial-status policy as manual ones.
type Creator interface {
	Create(ctx context.Context, draft opportunities.Draft) (opportunities.Opportunity, error)
}

// AdzunaSearcher is the slice of the Adzuna client the service uses.
type AdzunaSearcher interface {
	Search(ctx context.Context, country, what string, page int) ([]AdzunaJob, error)
}

// JoobleSearcher is the slice of the Jooble client the service uses.
type JoobleSearcher interface {
	Search(ctx context.Context, keywords, location string) ([]JoobleJob, error)
}

// FeedReader is the slice of the feed fetcher the service uses.
type FeedReader interface {
	Fetch(ctx context.Context, src FeedSource) ([]opportunities.Draft, error)
}

// Service runs one import pass over every enabled source.
type Service struct {
	creator Creator
	adzuna  AdzunaSearcher
	jooble  JoobleSearcher
	feeds   FeedReader
	logger  zerolog.Logger
}

// NewService wires the import service. Any of adzuna, jooble and feeds may be
// nil; the matching sources are then reported as failed if enabled.
func NewService(creator Creator, adzuna AdzunaSearcher, jooble JoobleSearcher, feeds FeedReader, logger zerolog.Logger) *Service {
	return &Service{
		creator: creator,
		adzuna:  adzuna,
		jooble:  jooble,
		feeds:   feeds,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// SourceReport is the per-source outcome of one run.
type SourceReport struct {
	Created int
	Skipped int
	Failed  int
	Err     error
}

// Report summarizes one import run.
type Report struct {
	RunID    string
	BySource map[string]SourceReport
}

// Created sums created drafts across sources.
func (r Report) Created() int {
	total := 0
	for _, src := range r.BySource {
		total += src.Created
	}
	return total
}

// Run executes one import pass. Source failures are isolated: a feed that is
// down or a board that rejects our credentials marks its own source failed
// and the run continues. The returned error is non-nil only when nothing
// could even be attempted.
func (s *Service) Run(ctx context.Context, sources Sources) (Report, error) {
	report := Report{
		RunID:    ulid.Make().String(),
		BySource: make(map[string]SourceReport),
	}
	logger := s.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Msg("import run started")

	if sources.Adzuna.Enabled {
		report.BySource["adzuna"] = s.runAdzuna(ctx, logger, sources.Adzuna)
	}
	if sources.Jooble.Enabled {
		report.BySource["jooble"] = s.runJooble(ctx, logger, sources.Jooble)
	}
	for _, feed := range sources.Feeds {
		if !feed.Enabled {
			continue
		}
		report.BySource[feed.Name] = s.runFeed(ctx, logger, feed)
	}

	if len(report.BySource) == 0 {
		return report, errors.New("no sources enabled")
	}
	logger.Info().Int("created", report.Created()).Int("sources", len(report.BySource)).Msg("import run finished")
	return report, nil
}

func (s *Service) runAdzuna(ctx context.Context, logger zerolog.Logger, src AdzunaSource) SourceReport {
	if s.adzuna == nil {
		return SourceReport{Err: errors.New("adzuna client not configured")}
	}
	var report SourceReport
	for page := 1; page <= src.Pages; page++ {
		jobs, err := s.adzuna.Search(ctx, src.Country, src.What, page)
		if err != nil {
			logger.Warn().Err(err).Int("page", page).Msg("adzuna fetch failed")
			report.Err = err
			break
		}
		if len(jobs) == 0 {
			break
		}
		for _, job := range jobs {
			s.submit(ctx, logger, adzunaDraft(job, src), string(opportunities.SourceAdzuna), &report)
		}
	}
	return report
}

func (s *Service) runJooble(ctx context.Context, logger zerolog.Logger, src JoobleSource) SourceReport {
	if s.jooble == nil {
		return SourceReport{Err: errors.New("jooble client not configured")}
	}
	var report SourceReport
	jobs, err := s.jooble.Search(ctx, src.Keywords, src.Location)
	if err != nil {
		logger.Warn().Err(err).Msg("jooble fetch failed")
		return SourceReport{Err: err}
	}
	for _, job := range jobs {
		s.submit(ctx, logger, joobleDraft(job, src), string(opportunities.SourceJooble), &report)
	}
	return report
}

func (s *Service) runFeed(ctx context.Context, logger zerolog.Logger, src FeedSource) SourceReport {
	if s.feeds == nil {
		return SourceReport{Err: errors.New("feed fetcher not configured")}
	}
	var report SourceReport
	drafts, err := s.feeds.Fetch(ctx, src)
	if err != nil {
		logger.Warn().Err(err).Str("feed", src.Name).Msg("feed fetch failed")
		return SourceReport{Err: err}
	}
	for _, draft := range drafts {
		s.submit(ctx, logger, draft, string(opportunities.SourceRSS), &report)
	}
	return report
}

// submit pushes one draft through the moderation gateway, classifying the
// outcome. Drafts that fail validation or already exist are skipped, not
// failures: boards routinely emit partial and repeated listings.
func (s *Service) submit(ctx context.Context, logger zerolog.Logger, draft opportunities.Draft, source string, report *SourceReport) {
	_, err := s.creator.Create(ctx, draft)
	switch {
	case err == nil:
		report.Created++
		metrics.ImportedOpportunities.WithLabelValues(source, "created").Inc()
	case isSkippable(err):
		report.Skipped++
		metrics.ImportedOpportunities.WithLabelValues(source, "skipped").Inc()
		logger.Debug().Err(err).Str("title", draft.Title).Msg("skipped imported draft")
	default:
		report.Failed++
		metrics.ImportedOpportunities.WithLabelValues(source, "failed").Inc()
		logger.Warn().Err(err).Str("title", draft.Title).Msg("failed to create imported draft")
	}
}

func isSkippable(err error) bool {
	var verr *validation.ValidationError
	var conflict *backend.ConflictError
	return errors.As(err, &verr) || errors.As(err, &conflict)
}
