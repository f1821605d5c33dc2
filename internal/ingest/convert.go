package ingest

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/mmcdole/gofeed"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/sanitize"
)

// defaultDeadlineWindow is assumed when a listing carries no closing date.
// Boards rotate listings out after roughly a month.
const defaultDeadlineWindow = 30 * 24 * time.Hour

// descriptionLimit bounds imported descriptions; board snippets can run to
// tens of kilobytes of markup.
const descriptionLimit = 2000

func adzunaDraft(job AdzunaJob, src AdzunaSource) opportunities.Draft {
	draft := opportunities.Draft{
		Title:               sanitize.Text(job.Title),
		Company:             sanitize.Text(job.Company.DisplayName),
		Description:         sanitize.Excerpt(job.Description, descriptionLimit),
		Location:            sanitize.Text(job.Location.DisplayName),
		Positions:           1,
		ApplicationDeadline: deadlineFrom(job.Created),
		Type:                classifyType(job.Title, opportunities.TypeInternship),
		Category:            src.Category,
		Source:              opportunities.SourceAdzuna,
	}
	if draft.Location == "" {
		draft.Location = src.Location
	}
	if job.RedirectURL != "" {
		applyURL := job.RedirectURL
		draft.ApplyURL = &applyURL
	}
	return draft
}

func joobleDraft(job JoobleJob, src JoobleSource) opportunities.Draft {
	draft := opportunities.Draft{
		Title:               sanitize.Text(job.Title),
		Company:             sanitize.Text(job.Company),
		Description:         sanitize.Excerpt(job.Snippet, descriptionLimit),
		Location:            sanitize.Text(job.Location),
		Positions:           1,
		ApplicationDeadline: deadlineFrom(job.Updated),
		Type:                classifyType(job.Title, opportunities.TypeInternship),
		Category:            src.Category,
		Source:              opportunities.SourceJooble,
	}
	if draft.Location == "" {
		draft.Location = src.Location
	}
	if job.Link != "" {
		applyURL := job.Link
		draft.ApplyURL = &applyURL
	}
	return draft
}

func feedDraft(item *gofeed.Item, feed *gofeed.Feed, src FeedSource) opportunities.Draft {
	company := src.Name
	if item.Author != nil && item.Author.Name != "" {
		company = item.Author.Name
	} else if feed.Title != "" {
		company = feed.Title
	}

	description := item.Content
	if description == "" {
		description = item.Description
	}

	published := time.Time{}
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	draft := opportunities.Draft{
		Title:               sanitize.Text(item.Title),
		Company:             sanitize.Text(company),
		Description:         sanitize.Excerpt(description, descriptionLimit),
		Location:            src.Location,
		Positions:           1,
		ApplicationDeadline: deadlineAfter(published),
		Type:                classifyType(item.Title, src.Type),
		Category:            src.Category,
		Source:              opportunities.SourceRSS,
	}
	if item.Link != "" {
		applyURL := item.Link
		draft.ApplyURL = &applyURL
	}
	return draft
}

// classifyType picks the placement kind from the listing title, falling back
// to the source's configured kind.
func classifyType(title string, fallback opportunities.Type) opportunities.Type {
	lowered := strings.ToLower(title)
	switch {
	case strings.Contains(lowered, "attachment"):
		return opportunities.TypeIndustrialAttachment
	case strings.Contains(lowered, "intern"):
		return opportunities.TypeInternship
	default:
		return fallback
	}
}

// deadlineFrom derives an application deadline from a board's posting
// timestamp, which arrives in whatever format the board favours.
func deadlineFrom(posted string) time.Time {
	if posted == "" {
		return deadlineAfter(time.Time{})
	}
	parsed, err := dateparser.Parse(nil, posted)
	if err != nil {
		return deadlineAfter(time.Time{})
	}
	return deadlineAfter(parsed.Time)
}

func deadlineAfter(posted time.Time) time.Time {
	if posted.IsZero() {
		posted = time.Now().UTC()
	}
	return posted.Add(defaultDeadlineWindow)
}
