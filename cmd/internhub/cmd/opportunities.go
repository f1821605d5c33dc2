package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
)

var (
	opportunitiesStatus string
	opportunitiesFormat string
)

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "Browse public listings",
	Long: `Browse the public internship and industrial-attachment listings.

No authentication required.

Examples:
  # List the default public set
  internhub opportunities

  # Only active listings
  internhub opportunities --status active

  # Raw JSON
  internhub opportunities --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		listed, err := app.client.PublicOpportunities(ctx, opportunitiesStatus)
		if err != nil {
			return err
		}
		return printOpportunities(listed, opportunitiesFormat)
	},
}

func init() {
	rootCmd.AddCommand(opportunitiesCmd)

	opportunitiesCmd.Flags().StringVar(&opportunitiesStatus, "status", "", "filter by lifecycle status (server-side)")
	opportunitiesCmd.Flags().StringVar(&opportunitiesFormat, "format", "table", "output format (table, json)")
}

func printOpportunities(listed []opportunities.Opportunity, format string) error {
	if format == "json" {
		output, err := json.MarshalIndent(listed, "", "  ")
		if err != nil {
			return fmt.Errorf("format JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(listed) == 0 {
		fmt.Println("No opportunities found.")
		return nil
	}

	fmt.Printf("Found %d opportunit%s:\n\n", len(listed), plural(len(listed), "y", "ies"))
	for i, opp := range listed {
		fmt.Printf("%d. %s\n", i+1, opp.Title)
		fmt.Printf("   ID:       %s\n", opp.ID)
		fmt.Printf("   Company:  %s\n", opp.Company)
		fmt.Printf("   Location: %s\n", opp.Location)
		fmt.Printf("   Type:     %s  Category: %s  Status: %s\n", opp.Type, opp.Category, opp.Status)
		fmt.Printf("   Deadline: %s\n", opp.ApplicationDeadline.Format("2006-01-02"))
		if opp.ApplyURL != nil {
			fmt.Printf("   Apply:    %s\n", *opp.ApplyURL)
		}
		fmt.Println()
	}
	return nil
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
