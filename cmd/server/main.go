package main

import (
	"log/slog"
	"os"

	"github.com/nfrund/presetmarket/internal/config"
	"github.com/nfrund/presetmarket/internal/logging"
	"github.com/nfrund/presetmarket/internal/server"
)

func main() {
	cfg := config.New()
	logging.New(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.RequireSessionSecret(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	s, err := server.New(cfg, server.Options{})
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	if err := s.Start(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
