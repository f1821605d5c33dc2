package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail     string
	loginPassword  string
	loginFederated bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session",
	Long: `Sign in to InternHub and persist the resulting session.

Credential login exchanges an email/password pair with the backend.
Federated login (--federated) runs the provider's browser sign-in flow
and exchanges the provider token instead.

Examples:
  # Credential login; the password is prompted when not given
  internhub login --email you@example.com

  # Federated login through the browser
  internhub login --federated`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if loginFederated {
			if err := app.syncer.LoginWithFederatedProvider(ctx); err != nil {
				return err
			}
		} else {
			password := loginPassword
			if password == "" {
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}
			if err := app.syncer.LoginWithCredentials(ctx, loginEmail, password); err != nil {
				return err
			}
		}

		snap := app.store.Snapshot()
		fmt.Printf("Signed in as %s (%s)\n", snap.User.Email, snap.User.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginFederated, "federated", false, "sign in through the federated provider flow")
}

// promptPassword reads a password without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
