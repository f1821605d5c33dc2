package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/InternHub-KE/client/internal/ingest"
)

var importSourcesFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import listings from external boards and feeds",
	Long: `Import listings from configured external sources (Adzuna, Jooble,
RSS/Atom feeds) as drafts for moderation. Imported drafts follow the
same initial-status policy as manually created listings.`,
}

var importRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one import pass over every enabled source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		sources, err := ingest.LoadSources(sourcesPath(app))
		if err != nil {
			return err
		}

		service := ingest.NewService(
			app.gateway(),
			ingest.NewAdzunaClient(app.cfg.Import.AdzunaAppID, app.cfg.Import.AdzunaAppKey),
			ingest.NewJoobleClient(app.cfg.Import.JoobleAPIKey),
			ingest.NewFeedFetcher(app.cfg.Import.FetchTimeout),
			app.logger,
		)

		report, err := service.Run(ctx, sources)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s: %d draft(s) created\n\n", report.RunID, report.Created())
		names := make([]string, 0, len(report.BySource))
		for name := range report.BySource {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			src := report.BySource[name]
			line := fmt.Sprintf("  %-20s created %-3d skipped %-3d failed %d", name, src.Created, src.Skipped, src.Failed)
			if src.Err != nil {
				line += fmt.Sprintf("  (error: %v)", src.Err)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var importSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Validate and show the sources file",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		path := sourcesPath(app)
		sources, err := ingest.LoadSources(path)
		if err != nil {
			return err
		}

		fmt.Printf("Sources file %s is valid.\n\n", path)
		fmt.Printf("  adzuna: enabled=%t country=%s what=%q\n", sources.Adzuna.Enabled, sources.Adzuna.Country, sources.Adzuna.What)
		fmt.Printf("  jooble: enabled=%t keywords=%q location=%q\n", sources.Jooble.Enabled, sources.Jooble.Keywords, sources.Jooble.Location)
		for _, feed := range sources.Feeds {
			fmt.Printf("  feed %q: enabled=%t url=%s category=%s\n", feed.Name, feed.Enabled, feed.URL, feed.Category)
		}
		return nil
	},
}

func sourcesPath(app *app) string {
	if importSourcesFile != "" {
		return importSourcesFile
	}
	return app.cfg.Import.SourcesFile
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importRunCmd)
	importCmd.AddCommand(importSourcesCmd)

	importCmd.PersistentFlags().StringVar(&importSourcesFile, "sources", "", "sources file (overrides INTERNHUB_SOURCES_FILE)")
}
