package embeddings

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/actionforest/api/internal/config"
	"github.com/actionforest/api/pkg/embeddings/genai"
	"github.com/actionforest/api/pkg/logger"
)

// Module provides the embeddings service.
var Module = fx.Module("embeddings",
	fx.Provide(NewService),
)

// Service selects an embedding client from configuration and exposes
// it to the search index. When no provider is configured the service
// stays disabled and search degrades to keyword-only.
type Service struct {
	client  Client
	log     *slog.Logger
	enabled bool
}

// NewService creates the embeddings service. The real client is
// initialized on startup so a misconfigured provider degrades to the
// noop client instead of failing boot.
func NewService(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) *Service {
	log = log.With(logger.Scope("embeddings"))

	svc := &Service{
		client:  NewNoopClient(),
		log:     log,
		enabled: false,
	}

	if !cfg.Embeddings.IsEnabled() {
		log.Info("embeddings disabled - no provider configured")
		return svc
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client, err := genai.NewClient(ctx, genai.Config{
				APIKey: cfg.Embeddings.GoogleAPIKey,
				Model:  cfg.Embeddings.Model,
			}, genai.WithLogger(log))
			if err != nil {
				log.Error("failed to initialize embeddings client", logger.Error(err))
				// Keep noop client; don't fail startup
				return nil
			}
			svc.client = client
			svc.enabled = true
			log.Info("embeddings client initialized", slog.String("model", cfg.Embeddings.Model))
			return nil
		},
	})

	return svc
}

// NewNoopService creates a disabled service (for tests).
func NewNoopService(log *slog.Logger) *Service {
	return &Service{
		client:  NewNoopClient(),
		log:     log,
		enabled: false,
	}
}

// NewServiceWithClient creates a service around an explicit client
// (for tests with a fake embedder).
func NewServiceWithClient(client Client, log *slog.Logger) *Service {
	return &Service{
		client:  client,
		log:     log,
		enabled: true,
	}
}

// IsEnabled returns true if embeddings are available.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// EmbedQuery generates an embedding for a single query.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.client.EmbedQuery(ctx, query)
}

// EmbedDocuments generates embeddings for multiple documents.
func (s *Service) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	return s.client.EmbedDocuments(ctx, documents)
}
