package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/mmcdole/gofeed"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
)

const (
	// feedUserAgent identifies the importer to feed servers.
	feedUserAgent = "InternHub/1.0 feed importer"
	// maxFeedBody caps how much of a feed response is read.
	maxFeedBody = 5 << 20
)

// FeedFetcher downloads and parses RSS/Atom feeds. Feed URLs come from an
// operator-edited file but are still fetched through an SSRF-guarded client:
// private, loopback and link-local addresses are refused at the dialer, which
// also covers DNS rebinding.
type FeedFetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

// FeedOption configures a FeedFetcher.
type FeedOption func(*FeedFetcher)

// WithFeedHTTPClient replaces the SSRF-guarded client, mainly for tests
// against loopback servers.
func WithFeedHTTPClient(client *http.Client) FeedOption {
	return func(f *FeedFetcher) {
		f.client = client
	}
}

// NewFeedFetcher creates a fetcher with the given per-request timeout.
func NewFeedFetcher(timeout time.Duration, opts ...FeedOption) *FeedFetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	fetcher := &FeedFetcher{
		client: safeurl.Client(config).Client,
		parser: gofeed.NewParser(),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads one feed and converts its items to drafts. Items missing a
// title are skipped here; everything else is left for draft validation to
// judge.
func (f *FeedFetcher) Fetch(ctx context.Context, src FeedSource) ([]opportunities.Draft, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", feedUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %d", src.Name, resp.StatusCode)
	}

	feed, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	drafts := make([]opportunities.Draft, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		drafts = append(drafts, feedDraft(item, feed, src))
	}
	return drafts, nil
}
