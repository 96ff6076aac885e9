// Package main is the entry point for the notes API server.
//
// It reads configuration, builds the logger, opens the store once and hands
// it to the server. All actual logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/notes-api/internal/config"
	"github.com/sakif/notes-api/internal/server"
	"github.com/sakif/notes-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	store, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:             cfg.Port,
		JWTSecret:        cfg.JWTSecret,
		TokenExpiry:      cfg.TokenExpiry,
		TokenEmbedExpiry: cfg.TokenEmbedExpiry,
		APIKey:           cfg.APIKey,
		APIKeyName:       cfg.APIKeyName,
		BcryptCost:       cfg.BcryptCost,
	}, logger, store)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on return.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger picks the slog handler from LOG_FORMAT and LOG_LEVEL.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
