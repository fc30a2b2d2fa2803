package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"ilim-checkout/internal/logging"
)

const (
	defaultPort             = "8081"
	defaultPendingResponses = 3
)

func main() {
	logger := logging.New(logging.DefaultConfig())

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	pending := defaultPendingResponses
	if v := os.Getenv("PENDING_RESPONSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Error("Invalid PENDING_RESPONSES", "value", v)
			os.Exit(1)
		}
		pending = n
	}

	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%s", port)
	}

	server := NewServer(pending, publicURL, logger)

	addr := fmt.Sprintf(":%s", port)
	logger.Info("Starting ilim backend mock",
		"port", port,
		"pending_responses", pending,
	)

	if err := http.ListenAndServe(addr, server); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
