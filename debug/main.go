package main

import (
	"os"

	"github.com/emrgen/worklink/internal/config"
	"github.com/emrgen/worklink/internal/server"
	"github.com/sirupsen/logrus"
)

// starts the server against the local sqlite database in insecure mode
func main() {
	cfg := config.LoadConfig()

	httpPort := os.Getenv("HTTP_PORT")
	if httpPort != "" {
		cfg.Server.HTTPPort = httpPort
	}
	cfg.Auth.Insecure = true
	cfg.Log.Level = "debug"

	err := server.Start(cfg)
	if err != nil {
		logrus.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}
