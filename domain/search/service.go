package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/actionforest/api/internal/config"
	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/embeddings"
	"github.com/actionforest/api/pkg/logger"
	"github.com/actionforest/api/pkg/mathutil"
)

// Channel fusion weights. Keyword scores are z-score normalized into
// [0,1] first so the two channels combine on the same scale.
const (
	keywordWeight = 0.5
	vectorWeight  = 0.5
)

// channelHit is one result from either channel before fusion.
type channelHit struct {
	ID    uuid.UUID
	Title string
	Score float32
	Spans []Span
}

// Service runs keyword, vector, and hybrid searches over the action
// forest.
type Service struct {
	repo       *Repository
	embeddings *embeddings.Service
	cfg        config.SearchConfig
	log        *slog.Logger
}

// NewService creates a new search service.
func NewService(repo *Repository, emb *embeddings.Service, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		embeddings: emb,
		cfg:        cfg.Search,
		log:        log.With(logger.Scope("search.service")),
	}
}

// Search executes the request. Vector and hybrid modes degrade to
// fewer (or zero) vector results when no embedding provider is
// configured; keyword results are unaffected.
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperror.NewValidation("query must not be empty")
	}

	mode := SearchMode(req.SearchMode)
	if mode == "" {
		mode = ModeHybrid
	}
	switch mode {
	case ModeKeyword, ModeVector, ModeHybrid:
	default:
		return nil, apperror.NewValidation("search_mode must be keyword, vector, or hybrid")
	}

	limit := mathutil.ClampLimit(req.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)

	includeCompleted := true
	if req.IncludeCompleted != nil {
		includeCompleted = *req.IncludeCompleted
	}

	threshold := s.cfg.SimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, apperror.NewValidation("similarity_threshold must be between 0 and 1")
	}

	// Fetch more than the final limit so fusion has candidates to
	// rerank.
	fetchLimit := limit * 3

	var keywordHits, vectorHits []channelHit
	var keywordMs, vectorMs int64
	embeddingsUsed := false

	if mode == ModeKeyword || mode == ModeHybrid {
		start := time.Now()
		hits, err := s.keywordChannel(ctx, query, includeCompleted, fetchLimit)
		if err != nil {
			return nil, err
		}
		keywordHits = hits
		keywordMs = time.Since(start).Milliseconds()
	}

	if mode == ModeVector || mode == ModeHybrid {
		start := time.Now()
		hits, used, err := s.vectorChannel(ctx, query, threshold, includeCompleted, fetchLimit)
		if err != nil {
			return nil, err
		}
		vectorHits = hits
		embeddingsUsed = used
		vectorMs = time.Since(start).Milliseconds()
	}

	var results []SearchResultItem
	switch mode {
	case ModeKeyword:
		results = singleChannel(keywordHits, MatchKeyword, limit)
	case ModeVector:
		results = singleChannel(vectorHits, MatchVector, limit)
	case ModeHybrid:
		results = fuseHybrid(keywordHits, vectorHits, limit)
	}

	return &SearchResponse{
		Results: results,
		Metadata: SearchMetadata{
			Query:            query,
			SearchMode:       string(mode),
			TotalResults:     len(results),
			KeywordCount:     len(keywordHits),
			VectorCount:      len(vectorHits),
			KeywordTimeMs:    keywordMs,
			VectorTimeMs:     vectorMs,
			Threshold:        threshold,
			IncludeCompleted: includeCompleted,
			EmbeddingsUsed:   embeddingsUsed,
		},
	}, nil
}

func (s *Service) keywordChannel(ctx context.Context, query string, includeCompleted bool, fetchLimit int) ([]channelHit, error) {
	tokens := tokenize(query)
	rows, err := s.repo.KeywordCandidates(ctx, tokens, includeCompleted, fetchLimit*4)
	if err != nil {
		return nil, err
	}

	var hits []channelHit
	for _, row := range rows {
		m := matchKeyword(row.Title, row.Description, tokens)
		if m.score <= 0 {
			continue
		}
		hits = append(hits, channelHit{
			ID:    row.ID,
			Title: row.Title,
			Score: m.score,
			Spans: m.spans,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > fetchLimit {
		hits = hits[:fetchLimit]
	}
	return hits, nil
}

func (s *Service) vectorChannel(ctx context.Context, query string, threshold float32, includeCompleted bool, fetchLimit int) ([]channelHit, bool, error) {
	if !s.embeddings.IsEnabled() {
		return nil, false, nil
	}

	vector, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		s.log.Warn("query embedding failed, skipping vector channel", logger.Error(err))
		return nil, false, nil
	}
	if len(vector) == 0 {
		return nil, false, nil
	}

	rows, err := s.repo.VectorSearch(ctx, vector, threshold, includeCompleted, fetchLimit)
	if err != nil {
		return nil, false, err
	}

	hits := make([]channelHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, channelHit{ID: row.ID, Title: row.Title, Score: row.Score})
	}
	return hits, true, nil
}

// singleChannel converts one channel's hits into final results.
func singleChannel(hits []channelHit, matchType string, limit int) []SearchResultItem {
	results := make([]SearchResultItem, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResultItem{
			ID:        h.ID,
			Title:     h.Title,
			Score:     h.Score,
			MatchType: matchType,
			Highlight: h.Spans,
		})
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// fusedCandidate accumulates both channels' scores for one action.
type fusedCandidate struct {
	hit          channelHit
	keywordScore float32
	vectorScore  float32
	inKeyword    bool
	inVector     bool
	rankScore    float32
}

// fuseHybrid merges the two channels by id. Keyword scores are
// z-score normalized then squashed into [0,1]; the rank score is the
// weighted combination, with keyword score breaking ties. A result in
// both channels is emitted once as "hybrid", reporting the higher of
// its two component scores.
func fuseHybrid(keywordHits, vectorHits []channelHit, limit int) []SearchResultItem {
	byID := make(map[uuid.UUID]*fusedCandidate)
	var order []uuid.UUID

	var keywordScores []float32
	for _, h := range keywordHits {
		keywordScores = append(keywordScores, h.Score)
		byID[h.ID] = &fusedCandidate{hit: h, keywordScore: h.Score, inKeyword: true}
		order = append(order, h.ID)
	}
	for _, h := range vectorHits {
		if c, ok := byID[h.ID]; ok {
			c.vectorScore = h.Score
			c.inVector = true
			continue
		}
		byID[h.ID] = &fusedCandidate{hit: h, vectorScore: h.Score, inVector: true}
		order = append(order, h.ID)
	}

	mean, std := mathutil.CalcMeanStd(keywordScores)
	for _, id := range order {
		c := byID[id]
		normalizedKeyword := float32(0)
		if c.inKeyword {
			normalizedKeyword = mathutil.Sigmoid(mathutil.ZScore(c.keywordScore, mean, std))
		}
		c.keywordScore = normalizedKeyword
		c.rankScore = normalizedKeyword*keywordWeight + c.vectorScore*vectorWeight
	}

	candidates := make([]*fusedCandidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, byID[id])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rankScore != candidates[j].rankScore {
			return candidates[i].rankScore > candidates[j].rankScore
		}
		return candidates[i].keywordScore > candidates[j].keywordScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]SearchResultItem, 0, len(candidates))
	for _, c := range candidates {
		matchType := MatchKeyword
		score := c.keywordScore
		switch {
		case c.inKeyword && c.inVector:
			matchType = MatchHybrid
			if c.vectorScore > score {
				score = c.vectorScore
			}
		case c.inVector:
			matchType = MatchVector
			score = c.vectorScore
		}
		results = append(results, SearchResultItem{
			ID:        c.hit.ID,
			Title:     c.hit.Title,
			Score:     score,
			MatchType: matchType,
			Highlight: c.hit.Spans,
		})
	}
	return results
}
