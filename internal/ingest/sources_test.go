package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSourcesAppliesDefaults(t *testing.T) {
	path := writeSources(t, `
adzuna:
  enabled: true
jooble:
  enabled: true
feeds:
  - name: University Careers
    url: https://careers.example.ac.ke/feed.xml
    enabled: true
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)

	assert.Equal(t, "za", sources.Adzuna.Country)
	assert.Equal(t, "internship", sources.Adzuna.What)
	assert.Equal(t, 1, sources.Adzuna.Pages)
	assert.Equal(t, "Kenya", sources.Jooble.Location)

	require.Len(t, sources.Feeds, 1)
	feed := sources.Feeds[0]
	assert.Equal(t, "Other", feed.Category)
	assert.Equal(t, "Kenya", feed.Location)
	assert.Equal(t, opportunities.TypeInternship, feed.Type)
}

func TestLoadSourcesRejectsBadFeed(t *testing.T) {
	cases := map[string]string{
		"missing name": `
feeds:
  - url: https://example.com/feed.xml
`,
		"missing url": `
feeds:
  - name: Broken
`,
		"bad scheme": `
feeds:
  - name: Broken
    url: ftp://example.com/feed.xml
`,
		"unknown category": `
feeds:
  - name: Broken
    url: https://example.com/feed.xml
    category: Mystery
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
