package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/embeddings"
	"github.com/actionforest/api/pkg/logger"
)

// candidateRow is a keyword-channel candidate before scoring.
type candidateRow struct {
	ID          uuid.UUID `bun:"id"`
	Title       string    `bun:"title"`
	Description string    `bun:"description"`
	Done        bool      `bun:"done"`
}

// vectorRow is a vector-channel result with its cosine similarity.
type vectorRow struct {
	ID    uuid.UUID `bun:"id"`
	Title string    `bun:"title"`
	Score float32   `bun:"score"`
}

// Repository runs the two search channels against Postgres. The
// completed filter is applied in SQL, before any ranking, so limits
// operate on the filtered set.
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new search repository.
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("search.repository")),
	}
}

// KeywordCandidates fetches actions containing any query token in
// title or description, resolving legacy rows through coalesce on the
// data blob. Scoring happens in the service; this only narrows the
// candidate set.
func (r *Repository) KeywordCandidates(ctx context.Context, tokens []string, includeCompleted bool, fetchLimit int) ([]candidateRow, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	for _, token := range tokens {
		pattern := "%" + escapeLike(token) + "%"
		clauses = append(clauses,
			"(coalesce(nullif(a.title, ''), a.data->>'title', '') ILIKE ? OR coalesce(nullif(a.description, ''), a.data->>'description', '') ILIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := `
		SELECT a.id,
		       coalesce(nullif(a.title, ''), a.data->>'title', '') AS title,
		       coalesce(nullif(a.description, ''), a.data->>'description', '') AS description,
		       a.done
		FROM actions a
		WHERE (` + strings.Join(clauses, " OR ") + `)`
	if !includeCompleted {
		query += " AND a.done = false"
	}
	query += " ORDER BY a.created_at ASC LIMIT ?"
	args = append(args, fetchLimit)

	var rows []candidateRow
	if err := r.db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		r.log.Error("keyword candidate query failed", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return rows, nil
}

// VectorSearch runs a cosine similarity scan over stored embeddings,
// discarding candidates below the threshold.
func (r *Repository) VectorSearch(ctx context.Context, vector []float32, threshold float32, includeCompleted bool, limit int) ([]vectorRow, error) {
	literal := embeddings.VectorLiteral(vector)

	query := `
		SELECT a.id,
		       coalesce(nullif(a.title, ''), a.data->>'title', '') AS title,
		       (1 - (a.embedding <=> ?::vector)) AS score
		FROM actions a
		WHERE a.embedding IS NOT NULL
		  AND (1 - (a.embedding <=> ?::vector)) >= ?`
	args := []any{literal, literal, threshold}
	if !includeCompleted {
		query += " AND a.done = false"
	}
	query += " ORDER BY a.embedding <=> ?::vector LIMIT ?"
	args = append(args, literal, limit)

	var rows []vectorRow
	if err := r.db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		r.log.Error("vector search query failed", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return rows, nil
}

// escapeLike escapes LIKE metacharacters in a user token.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
