package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/InternHub-KE/client/internal/backend"
)

var (
	registerEmail     string
	registerPassword  string
	registerFirstName string
	registerLastName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		password := registerPassword
		if password == "" {
			password, err = promptPassword("Password: ")
			if err != nil {
				return err
			}
		}

		err = app.syncer.RegisterWithCredentials(ctx, backend.RegisterParams{
			FirstName: registerFirstName,
			LastName:  registerLastName,
			Email:     registerEmail,
			Password:  password,
		})
		if err != nil {
			return err
		}

		snap := app.store.Snapshot()
		fmt.Printf("Registered and signed in as %s\n", snap.User.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "last name")
}
