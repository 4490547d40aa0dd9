package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/travelexpense"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "travelexpense"
	configDir      = "./.tmp"
	defaultServer  = "http://localhost:4001"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is what the cli remembers between invocations.
type Context struct {
	Server string `json:"server" mapstructure:"server"`
	Token  string `json:"token" mapstructure:"token"`
	Email  string `json:"email" mapstructure:"email"`
}

// saves the context info to ./.tmp/travelexpense.yml
func setContextCommand() *cobra.Command {
	var server string
	var token string
	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if server == "" && token == "" {
				color.Red(`missing: --server or --token`)
				return
			}

			current := readContext()
			if server != "" {
				current.Server = server
			}
			if token != "" {
				current.Token = token
			}

			if err := writeContext(current); err != nil {
				fmt.Println("error writing config file: ", err)
			} else {
				fmt.Println("context saved")
			}
		},
	}

	command.Flags().StringVarP(&server, "server", "s", "", "server url")
	command.Flags().StringVarP(&token, "token", "t", "", "access token")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			current := readContext()
			printField("Server", current.Server)
			printField("Email", current.Email)
			if current.Token == "" {
				printField("Token", "")
			} else {
				printField("Token", "set")
			}
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{Server: defaultServer}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func configPath() string {
	return filepath.Join(configDir, configFileName+".yml")
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	viper.SetConfigName(configFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yml")
	viper.Set("context", map[string]string{
		"server": ctx.Server,
		"token":  ctx.Token,
		"email":  ctx.Email,
	})

	return viper.WriteConfigAs(configPath())
}

func readContext() Context {
	ctx := Context{Server: defaultServer}

	// create file if it doesn't exist
	if _, err := os.Stat(configPath()); os.IsNotExist(err) {
		if err := writeContext(ctx); err != nil {
			fmt.Println("error creating config file: ", err)
			return ctx
		}
	}

	viper.SetConfigName(configFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
	}

	if err := viper.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}
	if ctx.Server == "" {
		ctx.Server = defaultServer
	}

	return ctx
}

// newClient returns a client for the saved context.
func newClient() travelexpense.Client {
	current := readContext()
	client := travelexpense.NewClient(current.Server)
	client.SetToken(current.Token)
	return client
}
