package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
	"github.com/InternHub-KE/client/internal/sanitize"
)

var (
	adminListFilter  string
	adminListFormat  string
	adminCreateFile  string
	adminDeleteYes   bool
	adminDashboardAs string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderation workflow (admin role required)",
	Long: `Drive the moderation workflow: list submissions, create listings,
approve, reject, remove, and view the dashboard.

The backend enforces the admin role; a session without it gets a
permission error.`,
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the moderation dashboard numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		snapshot, err := app.client.AdminStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total opportunities:  %d\n", snapshot.TotalOpportunities)
		fmt.Printf("Active opportunities: %d\n", snapshot.ActiveOpportunities)
		fmt.Printf("Pending applications: %d\n", snapshot.PendingApplications)
		fmt.Printf("Total users:          %d\n", snapshot.TotalUsers)
		return nil
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List opportunities by lifecycle filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		listed, err := app.gateway().List(ctx, adminListFilter)
		if err != nil {
			return err
		}
		return printOpportunities(listed, adminListFormat)
	},
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing from a draft file",
	Long: `Create a listing from a YAML draft file. The initial status follows
the configured policy (INTERNHUB_CREATE_STATUS: pending by default).

Example draft file:

  title: Backend Intern
  company: Acme Ltd
  description: Work on the listings API.
  requirements:
    - Go
    - SQL
  location: Nairobi
  positions: 2
  deadline: 2026-10-01
  type: internship
  category: IT
  apply_url: https://acme.example/jobs/42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		draft, err := loadDraftFile(adminCreateFile)
		if err != nil {
			return err
		}
		created, err := app.gateway().Create(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Printf("Created %q (%s) with status %s\n", created.Title, created.ID, created.Status)
		return nil
	},
}

var adminApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "approve")
	},
}

var adminRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "reject")
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Permanently remove a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		confirm := func() bool {
			if adminDeleteYes {
				return true
			}
			fmt.Printf("Permanently delete %s? This cannot be undone. [y/N] ", args[0])
			var answer string
			_, _ = fmt.Scanln(&answer)
			return answer == "y" || answer == "Y" || answer == "yes"
		}

		if err := app.gateway().Remove(ctx, args[0], confirm); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Refresh the moderation dashboard (listing plus stats)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		dashboard, err := app.gateway().Refresh(ctx, adminDashboardAs)
		if err != nil {
			return err
		}

		if dashboard.Stats != nil {
			fmt.Printf("Opportunities: %d total, %d active   Applications pending: %d   Users: %d\n\n",
				dashboard.Stats.TotalOpportunities, dashboard.Stats.ActiveOpportunities,
				dashboard.Stats.PendingApplications, dashboard.Stats.TotalUsers)
		} else {
			fmt.Println("Stats unavailable.")
			fmt.Println()
		}
		return printOpportunities(dashboard.Opportunities, "table")
	},
}

func runTransition(cmd *cobra.Command, id, action string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	gateway := app.gateway()
	var updated opportunities.Opportunity
	if action == "approve" {
		updated, err = gateway.Approve(ctx, id)
	} else {
		updated, err = gateway.Reject(ctx, id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", updated.ID, updated.Status)
	return nil
}

// draftFile is the YAML shape of a draft file; field names stay close to
// what the admin form asks for.
type draftFile struct {
	Title        string   `yaml:"title"`
	Company      string   `yaml:"company"`
	Description  string   `yaml:"description"`
	Requirements []string `yaml:"requirements"`
	Location     string   `yaml:"location"`
	Duration     string   `yaml:"duration"`
	Positions    int      `yaml:"positions"`
	Deadline     string   `yaml:"deadline"`
	Type         string   `yaml:"type"`
	Category     string   `yaml:"category"`
	Stipend      string   `yaml:"stipend"`
	ApplyURL     string   `yaml:"apply_url"`
}

func loadDraftFile(path string) (opportunities.Draft, error) {
	if path == "" {
		return opportunities.Draft{}, fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opportunities.Draft{}, fmt.Errorf("read draft file: %w", err)
	}
	var file draftFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opportunities.Draft{}, fmt.Errorf("parse draft file: %w", err)
	}

	// Draft files get pasted together from job pages; strip any markup
	// that came along.
	draft := opportunities.Draft{
		Title:        sanitize.Text(file.Title),
		Company:      sanitize.Text(file.Company),
		Description:  sanitize.Text(file.Description),
		Requirements: sanitize.TextSlice(file.Requirements),
		Location:     file.Location,
		Positions:    file.Positions,
		Type:         opportunities.Type(file.Type),
		Category:     file.Category,
	}
	if file.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", file.Deadline)
		if err != nil {
			return opportunities.Draft{}, fmt.Errorf("parse deadline: %w (expected YYYY-MM-DD)", err)
		}
		draft.ApplicationDeadline = deadline
	}
	if file.Duration != "" {
		draft.Duration = &file.Duration
	}
	if file.Stipend != "" {
		draft.Stipend = &file.Stipend
	}
	if file.ApplyURL != "" {
		draft.ApplyURL = &file.ApplyURL
	}
	return draft, nil
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminListCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminApproveCmd)
	adminCmd.AddCommand(adminRejectCmd)
	adminCmd.AddCommand(adminDeleteCmd)
	adminCmd.AddCommand(adminDashboardCmd)

	adminListCmd.Flags().StringVar(&adminListFilter, "filter", opportunities.FilterAll, "lifecycle filter (all, pending, approved, rejected, active, closed)")
	adminListCmd.Flags().StringVar(&adminListFormat, "format", "table", "output format (table, json)")
	adminCreateCmd.Flags().StringVar(&adminCreateFile, "file", "", "YAML draft file")
	adminDeleteCmd.Flags().BoolVar(&adminDeleteYes, "yes", false, "skip the confirmation prompt")
	adminDashboardCmd.Flags().StringVar(&adminDashboardAs, "filter", opportunities.FilterAll, "lifecycle filter for the listing")
}
