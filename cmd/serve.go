package cmd

import (
	"github.com/emrgen/travelexpense/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var httpPort string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the rest api server",
		Run: func(cmd *cobra.Command, args []string) {
			server.NewServer(httpPort).Start()
		},
	}

	command.Flags().StringVarP(&httpPort, "port", "p", "", "http port, defaults to HTTP_PORT or 4001")

	return command
}
