package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "dashboard",
		Short: "show the stats and the recent applications",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			defer client.Close()

			data, err := client.Dashboard(cmd.Context())
			if err != nil {
				printError(err)
				return
			}

			if data.Profile != nil {
				printField("User", data.Profile.FullName)
				printField("Company", data.Profile.Company)
				printField("Position", data.Profile.Position)
			}

			stats := data.Stats
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Monthly expenses", "Monthly trips", "Pending", "Approved", "Approved amount", "Monthly approved"})
			table.Append([]string{
				stats.MonthlyExpenses.StringFixed(0),
				stats.MonthlyBusinessTrips.StringFixed(0),
				strconv.Itoa(stats.PendingApplications),
				strconv.Itoa(stats.ApprovedApplications),
				stats.ApprovedAmount.StringFixed(0),
				stats.MonthlyApprovedAmount.StringFixed(0),
			})
			table.Render()

			if len(data.Recent) == 0 {
				return
			}

			recent := tablewriter.NewWriter(os.Stdout)
			recent.SetHeader([]string{"Kind", "Title", "Amount", "Status", "Created"})
			for _, app := range data.Recent {
				recent.Append([]string{
					string(app.Kind),
					app.Title,
					app.Amount.StringFixed(0),
					string(app.Status),
					app.CreatedAt.Local().Format("2006-01-02"),
				})
			}
			recent.Render()
		},
	}

	return command
}
