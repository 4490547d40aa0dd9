package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/emrgen/travelexpense"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var regulationCmd = &cobra.Command{
	Use:   "regulation",
	Short: "travel regulation commands",
}

func init() {
	regulationCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	regulationCmd.AddCommand(createRegulationCmd())
	regulationCmd.AddCommand(updateRegulationCmd())
	regulationCmd.AddCommand(confirmRegulationCmd())
	regulationCmd.AddCommand(listRegulationCmd())
	regulationCmd.AddCommand(getRegulationCmd())
	regulationCmd.AddCommand(regulationHistoryCmd())
	regulationCmd.AddCommand(regulationTextCmd())
	regulationCmd.AddCommand(exportRegulationCmd())
	regulationCmd.AddCommand(deleteRegulationCmd())
}

// readRegulationFile reads the editor payload from a yaml file.
func readRegulationFile(path string) (service.RegulationInput, error) {
	var input service.RegulationInput

	data, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}
	if err := yaml.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("invalid regulation file %s: %w", path, err)
	}

	return input, nil
}

func printRegulation(r *model.Regulation) {
	printField("ID", r.ID)
	printField("Name", r.RegulationName)
	printField("Company", r.CompanyName)
	printField("Revision", strconv.Itoa(r.RevisionNumber))
	printField("Latest", strconv.FormatBool(r.IsLatestVersion))
	printField("Status", string(r.Status))
	printField("Implementation", r.ImplementationDate.Format("2006-01-02"))
}

func createRegulationCmd() *cobra.Command {
	var file string
	var yes bool

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "save a regulation, a new revision when the company already has one",
		Example: "travelexpense regulation create -f regulation.yaml -y",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			input, err := readRegulationFile(file)
			if err != nil {
				printError(err)
				return
			}

			client := newClient()
			defer client.Close()

			res, err := client.CreateRegulation(cmd.Context(), input)
			if err != nil {
				printError(err)
				return
			}

			if res.Regulation != nil {
				color.Green("regulation created")
				printRegulation(res.Regulation)
				return
			}

			proposal := res.Proposal
			color.Yellow("%s", proposal.Message)
			if !yes {
				printField("Token", proposal.Token)
				printField("Expires", proposal.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Println("confirm with: travelexpense regulation confirm -k " + proposal.Token)
				return
			}

			confirm(cmd, client, proposal.Token)
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "regulation yaml file (required)")
	command.Flags().BoolVarP(&yes, "yes", "y", false, "confirm a new revision without asking")

	command.Flags().SortFlags = false

	return command
}

func confirm(cmd *cobra.Command, client travelexpense.Client, token string) {
	regulation, err := client.ConfirmRevision(cmd.Context(), token)
	if err != nil {
		printError(err)
		return
	}

	color.Green("revision %d saved", regulation.RevisionNumber)
	printRegulation(regulation)
}

func confirmRegulationCmd() *cobra.Command {
	var token string

	var required = []string{"token"}

	command := &cobra.Command{
		Use:     "confirm",
		Short:   "confirm a proposed revision",
		Example: "travelexpense regulation confirm -k <proposal-token>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			confirm(cmd, client, token)
		},
	}

	command.Flags().StringVarP(&token, "token", "k", "", "proposal token (required)")

	return command
}

func updateRegulationCmd() *cobra.Command {
	var id string
	var file string

	var required = []string{"regulation-id", "file"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update a regulation in place",
		Example: "travelexpense regulation update -r <regulation-id> -f regulation.yaml",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			input, err := readRegulationFile(file)
			if err != nil {
				printError(err)
				return
			}

			client := newClient()
			defer client.Close()

			regulation, err := client.UpdateRegulation(cmd.Context(), id, input)
			if err != nil {
				printError(err)
				return
			}

			color.Green("regulation updated")
			printRegulation(regulation)
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "regulation yaml file (required)")

	command.Flags().SortFlags = false

	return command
}

func listRegulationCmd() *cobra.Command {
	var search string
	var latest bool

	command := &cobra.Command{
		Use:     "list",
		Short:   "list regulations",
		Example: "travelexpense regulation list -s <search>",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			defer client.Close()

			regulations, err := client.ListRegulations(cmd.Context(), search, latest)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Company", "Revision", "Latest", "Status", "Implementation"})
			for _, r := range regulations {
				table.Append([]string{
					r.ID,
					r.CompanyName,
					strconv.Itoa(r.RevisionNumber),
					strconv.FormatBool(r.IsLatestVersion),
					string(r.Status),
					r.ImplementationDate.Format("2006-01-02"),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&search, "search", "s", "", "filter by regulation or company name")
	command.Flags().BoolVarP(&latest, "latest", "l", false, "only the latest revision of each company")

	return command
}

func getRegulationCmd() *cobra.Command {
	var id string

	var required = []string{"regulation-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a regulation",
		Example: "travelexpense regulation get -r <regulation-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			regulation, err := client.GetRegulation(cmd.Context(), id)
			if err != nil {
				printError(err)
				return
			}

			printRegulation(regulation)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Position", "Daily", "Accommodation", "Transportation", "Overseas daily", "Overseas accommodation", "Preparation", "Overseas transportation"})
			for _, p := range regulation.Positions {
				table.Append([]string{
					p.PositionName,
					strconv.FormatInt(p.DomesticDailyAllowance, 10),
					strconv.FormatInt(p.DomesticAccommodationAllowance, 10),
					strconv.FormatInt(p.DomesticTransportationAllowance, 10),
					strconv.FormatInt(p.OverseasDailyAllowance, 10),
					strconv.FormatInt(p.OverseasAccommodationAllowance, 10),
					strconv.FormatInt(p.OverseasPreparationAllowance, 10),
					strconv.FormatInt(p.OverseasTransportationAllowance, 10),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")

	return command
}

func regulationHistoryCmd() *cobra.Command {
	var id string

	var required = []string{"regulation-id"}

	command := &cobra.Command{
		Use:     "history",
		Short:   "list the revisions of the company of a regulation",
		Example: "travelexpense regulation history -r <regulation-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			history, err := client.RegulationHistory(cmd.Context(), id)
			if err != nil {
				printError(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Revision", "Version", "Latest", "Summary", "Created"})
			for _, h := range history {
				table.Append([]string{
					h.ID,
					strconv.Itoa(h.RevisionNumber),
					h.VersionName,
					strconv.FormatBool(h.IsLatestVersion),
					h.ChangeSummary,
					h.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")

	return command
}

func regulationTextCmd() *cobra.Command {
	var id string

	var required = []string{"regulation-id"}

	command := &cobra.Command{
		Use:     "text",
		Short:   "print the legal text of a regulation",
		Example: "travelexpense regulation text -r <regulation-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			text, err := client.RegulationText(cmd.Context(), id)
			if err != nil {
				printError(err)
				return
			}

			fmt.Print(text)
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")

	return command
}

func exportRegulationCmd() *cobra.Command {
	var id string
	var output string

	var required = []string{"regulation-id"}

	command := &cobra.Command{
		Use:     "export",
		Short:   "download the legal text of a regulation",
		Example: "travelexpense regulation export -r <regulation-id> -o <file>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			file, err := client.ExportRegulation(cmd.Context(), id)
			if err != nil {
				printError(err)
				return
			}

			if output == "" {
				output = file.FileName
			}
			if err := os.WriteFile(output, []byte(file.Content), 0o644); err != nil {
				printError(err)
				return
			}

			color.Green("saved to %s", output)
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")
	command.Flags().StringVarP(&output, "output", "o", "", "output file, defaults to the server file name")

	command.Flags().SortFlags = false

	return command
}

func deleteRegulationCmd() *cobra.Command {
	var id string

	var required = []string{"regulation-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a regulation",
		Example: "travelexpense regulation delete -r <regulation-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			defer client.Close()

			if err := client.DeleteRegulation(cmd.Context(), id); err != nil {
				printError(err)
				return
			}

			color.Green("regulation %s deleted", id)
		},
	}

	command.Flags().StringVarP(&id, "regulation-id", "r", "", "regulation id (required)")

	return command
}
