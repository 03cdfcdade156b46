package main

import (
	"log"
	"log/slog"
	"os"

	"provreg/internal/config"
	"provreg/internal/infra/db"
	httpinfra "provreg/internal/infra/http"
	"provreg/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	})))

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	srv, err := httpinfra.NewServer(cfg, store, logger)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer srv.Flush()

	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
