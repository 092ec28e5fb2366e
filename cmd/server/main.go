// Package main provides the entry point for the Action Forest API
// server.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/domain/dependencies"
	"github.com/actionforest/api/domain/health"
	"github.com/actionforest/api/domain/relationships"
	"github.com/actionforest/api/domain/search"
	"github.com/actionforest/api/internal/config"
	"github.com/actionforest/api/internal/database"
	"github.com/actionforest/api/internal/migrate"
	"github.com/actionforest/api/internal/server"
	"github.com/actionforest/api/pkg/embeddings"
	"github.com/actionforest/api/pkg/logger"
	"github.com/actionforest/api/pkg/metrics"
)

func main() {
	// Load .env files if present (for local development).
	// Load() won't overwrite existing vars, Overload() will.
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		migrate.Module,
		server.Module,
		metrics.Module,

		// Embeddings module (provides the embedding client)
		embeddings.Module,

		// Domain modules
		health.Module,
		actions.Module,
		dependencies.Module,
		relationships.Module,
		search.Module,
	).Run()
}
