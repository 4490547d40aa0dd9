package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "travelexpense",
	Short: "travel expense and regulation management tool",
	Example: `travelexpense serve -p 4001
travelexpense login -e <email> -w <password>
travelexpense dashboard
travelexpense regulation create -f regulation.yaml
travelexpense regulation confirm -k <proposal-token>
travelexpense regulation list -s <search>
travelexpense regulation history -r <regulation-id>
travelexpense regulation export -r <regulation-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(regulationCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
