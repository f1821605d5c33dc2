package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile   string
	serverURL string
	logLevel  string
	logFormat string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "internhub",
		Short: "InternHub client - internship listings and moderation",
		Long: `InternHub client talks to the InternHub backend: it manages your
session (credential and federated sign-in, sign-out), browses public
internship and industrial-attachment listings, and drives the admin
moderation workflow (create, approve, reject, remove, dashboard).

It can also import listings from external job boards and RSS feeds as
drafts for moderation.`,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading configuration (optional)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL (overrides INTERNHUB_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: console)")
}
