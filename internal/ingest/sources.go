// Package ingest pulls internship listings from external job boards and RSS
// feeds and turns them into drafts for the moderation workflow. Imported
// drafts enter the same lifecycle as manually created ones; nothing here
// bypasses moderation.
package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/validation"
)

// Sources is the import configuration loaded from the sources YAML file.
type Sources struct {
	Adzuna AdzunaSource `yaml:"adzuna"`
	Jooble JoobleSource `yaml:"jooble"`
	Feeds  []FeedSource `yaml:"feeds"`
}

// AdzunaSource configures the Adzuna job-board search.
type AdzunaSource struct {
	Enabled  bool   `yaml:"enabled"`
	Country  string `yaml:"country"`
	What     string `yaml:"what"`
	Pages    int    `yaml:"max_pages"`
	Category string `yaml:"category"`
	Location string `yaml:"location"`
}

// JoobleSource configures the Jooble job-board search.
type JoobleSource struct {
	Enabled  bool   `yaml:"enabled"`
	Keywords string `yaml:"keywords"`
	Location string `yaml:"location"`
	Category string `yaml:"category"`
}

// FeedSource configures one RSS or Atom feed.
type FeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Enabled  bool   `yaml:"enabled"`
	Category string `yaml:"category"`
	Location string `yaml:"location"`

	// Type is the placement kind assumed for this feed's items unless the
	// item title says otherwise.
	Type opportunities.Type `yaml:"type"`
}

// LoadSources reads and validates the sources file.
func LoadSources(path string) (Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sources{}, fmt.Errorf("read sources file: %w", err)
	}
	var sources Sources
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return Sources{}, fmt.Errorf("parse sources file: %w", err)
	}

	applyDefaults(&sources)
	if err := validateSources(sources); err != nil {
		return Sources{}, err
	}
	return sources, nil
}

func applyDefaults(sources *Sources) {
	if sources.Adzuna.Country == "" {
		sources.Adzuna.Country = "za"
	}
	if sources.Adzuna.What == "" {
		sources.Adzuna.What = "internship"
	}
	if sources.Adzuna.Pages <= 0 {
		sources.Adzuna.Pages = 1
	}
	if sources.Adzuna.Category == "" {
		sources.Adzuna.Category = "Other"
	}
	if sources.Jooble.Keywords == "" {
		sources.Jooble.Keywords = "internship"
	}
	if sources.Jooble.Location == "" {
		sources.Jooble.Location = "Kenya"
	}
	if sources.Jooble.Category == "" {
		sources.Jooble.Category = "Other"
	}
	for i := range sources.Feeds {
		feed := &sources.Feeds[i]
		if feed.Category == "" {
			feed.Category = "Other"
		}
		if feed.Location == "" {
			feed.Location = "Kenya"
		}
		if feed.Type == "" {
			feed.Type = opportunities.TypeInternship
		}
	}
}

func validateSources(sources Sources) error {
	for i, feed := range sources.Feeds {
		if strings.TrimSpace(feed.Name) == "" {
			return fmt.Errorf("feeds[%d]: name is required", i)
		}
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
		if err := validation.ValidateURL(feed.URL, fmt.Sprintf("feeds[%d].url", i)); err != nil {
			return err
		}
		if !validCategory(feed.Category) {
			return fmt.Errorf("feeds[%d]: unknown category %q", i, feed.Category)
		}
	}
	if sources.Adzuna.Enabled && !validCategory(sources.Adzuna.Category) {
		return fmt.Errorf("adzuna: unknown category %q", sources.Adzuna.Category)
	}
	if sources.Jooble.Enabled && !validCategory(sources.Jooble.Category) {
		return fmt.Errorf("jooble: unknown category %q", sources.Jooble.Category)
	}
	return nil
}

func validCategory(category string) bool {
	for _, known := range opportunities.Categories {
		if category == known {
			return true
		}
	}
	return false
}
