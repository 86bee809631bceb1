package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/worklink"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "worklink-cli"
	contextDir     = "./.tmp"
	defaultServer  = "http://localhost:4021"
)

var (
	Token  string
	Server string
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

type Context struct {
	Token  string `mapstructure:"token" json:"token"`
	Server string `mapstructure:"server" json:"server"`
}

// saves the context info to the config file in ./.tmp
func setContextCommand() *cobra.Command {
	var token string
	var server string
	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if token == "" {
				color.Red(`missing: --token`)
				return
			}
			if server == "" {
				server = defaultServer
			}

			if err := writeContext(Context{Token: token, Server: server}); err != nil {
				printError(err)
				return
			}
			fmt.Println("context saved")
		},
	}

	command.Flags().StringVarP(&token, "token", "t", "", "api token")
	command.Flags().StringVarP(&server, "server", "s", "", "server url")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, err := readContext()
			if err != nil {
				printError(err)
				return
			}
			if ctx.Token == "" {
				color.Yellow("no context set")
				return
			}
			fmt.Printf("server: %s\ntoken:  %s\n", ctx.Server, maskToken(ctx.Token))
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{}); err != nil {
				printError(err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func contextViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.AddConfigPath(contextDir)
	v.SetConfigType("yml")
	return v
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return err
	}

	v := contextViper()
	v.Set("context.token", ctx.Token)
	v.Set("context.server", ctx.Server)

	return v.WriteConfigAs(filepath.Join(contextDir, configFileName+".yml"))
}

func readContext() (Context, error) {
	var ctx Context

	v := contextViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return ctx, nil
		}
		return ctx, err
	}

	err := v.UnmarshalKey("context", &ctx)
	return ctx, err
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}

func bindContextFlags(command *cobra.Command) {
	command.Flags().StringVarP(&Token, "token", "t", "", "api token, defaults to the saved context")
	command.Flags().StringVar(&Server, "server", "", "server url, defaults to the saved context")
}

// newClient builds an api client from the flags, falling back to the saved context.
func newClient() (*worklink.Client, error) {
	ctx, err := readContext()
	if err != nil {
		return nil, err
	}

	token := Token
	if token == "" {
		token = ctx.Token
	}
	server := Server
	if server == "" {
		server = ctx.Server
	}
	if server == "" {
		server = defaultServer
	}

	if token == "" {
		return nil, fmt.Errorf("missing token, run `worklink context set -t <token>` or pass --token")
	}

	return worklink.NewClient(server, token), nil
}
