package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/wetrack/wetrack/internal/config"
	"github.com/wetrack/wetrack/internal/devserver"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	server := devserver.New(cfg.DevServer.JWTSecret)

	port := fmt.Sprintf(":%d", cfg.DevServer.Port)
	slog.Info("starting dev server", "port", port)

	if err := http.ListenAndServe(port, server.Handler()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
