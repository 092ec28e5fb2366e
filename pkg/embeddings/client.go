// Package embeddings provides the text embedding capability the
// search index consumes. Content generation stays external; the core
// only needs text -> fixed-length vector.
package embeddings

import (
	"context"
	"strconv"
	"strings"
)

// Dimension is the embedding vector length stored per action
// (768 for text-embedding-004).
const Dimension = 768

// Client turns text into fixed-length vectors.
type Client interface {
	// EmbedQuery generates an embedding vector for a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedDocuments generates embedding vectors for stored documents.
	EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error)
}

// NoopClient is used when no embedding provider is configured. The
// search index falls back to keyword-only results.
type NoopClient struct{}

// NewNoopClient creates a new NoopClient.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// EmbedQuery returns nil, nil (no embedding available).
func (c *NoopClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

// EmbedDocuments returns nil, nil (no embeddings available).
func (c *NoopClient) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	return nil, nil
}

// VectorLiteral formats a vector in the pgvector text format,
// e.g. "[0.1,0.2,0.3]", for use as a ?::vector bind parameter.
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
