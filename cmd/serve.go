package cmd

import (
	"github.com/emrgen/worklink/internal/config"
	"github.com/emrgen/worklink/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var configFile string
	var port string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the link api server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadConfigFrom(configFile)
			if err != nil {
				printError(err)
				return
			}
			if port != "" {
				cfg.Server.HTTPPort = port
			}

			server.NewServer(cfg).Start()
		},
	}

	command.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	command.Flags().StringVarP(&port, "port", "p", "", "http port")

	return command
}
