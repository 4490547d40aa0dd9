package cmd

import (
	"github.com/emrgen/travelexpense"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var email string
	var password string

	var required = []string{"email", "password"}

	command := &cobra.Command{
		Use:     "login",
		Short:   "log in and save the token in the context",
		Example: "travelexpense login -e <email> -w <password>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			session := travelexpense.NewSession(client)
			user, err := session.Login(cmd.Context(), email, password)
			if err != nil {
				printError(err)
				return
			}

			current := readContext()
			current.Token = client.Token()
			current.Email = user.Email
			if err := writeContext(current); err != nil {
				printError(err)
				return
			}

			color.Green("logged in as %s (%s)", user.FullName, user.Email)
			printField("Expires", session.ExpiresAt().Local().Format("2006-01-02 15:04:05"))
		},
	}

	command.Flags().StringVarP(&email, "email", "e", "", "email or the demo login (required)")
	command.Flags().StringVarP(&password, "password", "w", "", "password (required)")

	command.Flags().SortFlags = false

	return command
}

func logoutCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "logout",
		Short: "revoke the saved token",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			defer client.Close()

			session := travelexpense.NewSession(client)
			err := session.Logout(cmd.Context())

			current := readContext()
			current.Token = ""
			current.Email = ""
			if werr := writeContext(current); werr != nil {
				printError(werr)
			}

			if err != nil {
				printError(err)
				return
			}
			color.Green("logged out")
		},
	}

	return command
}
