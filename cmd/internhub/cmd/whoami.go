package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		snap := app.store.Snapshot()
		if !snap.IsAuthenticated {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("Signed in as %s %s <%s> (%s)\n",
			snap.User.FirstName, snap.User.LastName, snap.User.Email, snap.User.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
