package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emrgen/travelexpense"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns true if any is missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		cmd.Usage()

		return true
	}

	return false
}

// printError prints api errors the way the server phrased them.
func printError(err error) {
	var apiErr *travelexpense.APIError
	switch {
	case errors.Is(err, travelexpense.ErrUnauthorized):
		color.Red("not logged in or the session expired, run: travelexpense login")
	case errors.As(err, &apiErr) && apiErr.Field != "":
		color.Red("%s: %s", apiErr.Field, apiErr.Message)
	case errors.As(err, &apiErr):
		color.Red("%s", apiErr.Message)
	default:
		logrus.Error(err)
	}
}
