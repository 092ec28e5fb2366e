package search

import (
	"github.com/google/uuid"
)

// SearchMode selects which channels contribute results.
type SearchMode string

const (
	ModeKeyword SearchMode = "keyword"
	ModeVector  SearchMode = "vector"
	ModeHybrid  SearchMode = "hybrid"
)

// Match types carried on each result.
const (
	MatchKeyword = "keyword"
	MatchVector  = "vector"
	MatchHybrid  = "hybrid"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query               string   `json:"query"`
	SearchMode          string   `json:"search_mode"`
	Limit               int      `json:"limit"`
	IncludeCompleted    *bool    `json:"include_completed"`
	SimilarityThreshold *float32 `json:"similarity_threshold"`
}

// Span marks a matched region inside a result field, for
// highlighting.
type Span struct {
	Field string `json:"field"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SearchResultItem is one ranked result.
type SearchResultItem struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Score     float32   `json:"score"`
	MatchType string    `json:"matchType"`
	Highlight []Span    `json:"highlight,omitempty"`
}

// SearchMetadata describes how the result set was produced.
type SearchMetadata struct {
	Query            string  `json:"query"`
	SearchMode       string  `json:"search_mode"`
	TotalResults     int     `json:"total_results"`
	KeywordCount     int     `json:"keyword_count"`
	VectorCount      int     `json:"vector_count"`
	KeywordTimeMs    int64   `json:"keyword_time_ms"`
	VectorTimeMs     int64   `json:"vector_time_ms"`
	Threshold        float32 `json:"similarity_threshold"`
	IncludeCompleted bool    `json:"include_completed"`
	EmbeddingsUsed   bool    `json:"embeddings_used"`
}

// SearchResponse is the payload of POST /search.
type SearchResponse struct {
	Results  []SearchResultItem `json:"results"`
	Metadata SearchMetadata     `json:"metadata"`
}
