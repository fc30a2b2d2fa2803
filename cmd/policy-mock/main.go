package main

import (
	"fmt"
	"net/http"
	"os"

	"ilim-checkout/internal/logging"
)

const (
	defaultPort       = "2772"
	defaultConfigsDir = "/configs"
)

func main() {
	logger := logging.New(logging.DefaultConfig())

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	configsDir := os.Getenv("CONFIGS_DIR")
	if configsDir == "" {
		configsDir = defaultConfigsDir
	}

	if _, err := os.Stat(configsDir); os.IsNotExist(err) {
		logger.Error("Configs directory does not exist", "path", configsDir, "error", err)
		os.Exit(1)
	}

	server := NewServer(configsDir, logger)

	addr := fmt.Sprintf(":%s", port)
	logger.Info("Starting policy mock server",
		"port", port,
		"configs_dir", configsDir,
	)

	if err := http.ListenAndServe(addr, server); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
