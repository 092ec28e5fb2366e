package actions

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Action is a node in the forest: a unit of work with content fields,
// a completion flag and an optimistic-concurrency version counter.
type Action struct {
	bun.BaseModel `bun:"table:actions,alias:a"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	Vision      string    `bun:"vision,notnull" json:"vision"`
	Done        bool      `bun:"done,notnull,default:false" json:"done"`
	Version     int       `bun:"version,notnull,default:1" json:"version"`

	// Data is the legacy untyped field blob carried by rows imported
	// from the old schema. Resolved once at read time via Fields();
	// nothing else should branch on it.
	Data map[string]any `bun:"data,type:jsonb" json:"-"`

	// SubtreeSummary is a cached descendant-scope summary written by
	// an external summarizer. Nulled whenever the child set changes.
	SubtreeSummary *string `bun:"subtree_summary" json:"subtree_summary,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updated_at"`

	// Embedding is stored in a vector(768) column handled via raw SQL
	// for pgvector queries; it is never scanned into this struct.
}

// Fields is the canonical content shape of an Action, independent of
// whether the row stores modern columns or a legacy data blob.
type Fields struct {
	Title       string
	Description string
	Vision      string
}

// Fields resolves the modern-vs-legacy union into the canonical
// shape. Modern columns win; empty modern fields fall back to the
// legacy blob where one exists.
func (a *Action) Fields() Fields {
	f := Fields{
		Title:       a.Title,
		Description: a.Description,
		Vision:      a.Vision,
	}
	if a.Data == nil {
		return f
	}
	if f.Title == "" {
		if v, ok := a.Data["title"].(string); ok {
			f.Title = v
		}
	}
	if f.Description == "" {
		if v, ok := a.Data["description"].(string); ok {
			f.Description = v
		}
	}
	if f.Vision == "" {
		if v, ok := a.Data["vision"].(string); ok {
			f.Vision = v
		}
	}
	return f
}

// EdgeKind discriminates the two edge types of the graph.
type EdgeKind string

const (
	// KindChild expresses "src is the parent of dst". The child
	// edges form a forest: at most one incoming child edge per node.
	KindChild EdgeKind = "child"

	// KindDependency expresses "src depends on dst" (dst must
	// complete before src). Dependency edges must form a DAG.
	KindDependency EdgeKind = "dependency"
)

// Edge is a directed edge between two actions. Edges are owned by
// the graph as a whole, not by either endpoint.
type Edge struct {
	bun.BaseModel `bun:"table:edges,alias:e"`

	Src       uuid.UUID `bun:"src,pk,type:uuid" json:"src"`
	Dst       uuid.UUID `bun:"dst,pk,type:uuid" json:"dst"`
	Kind      EdgeKind  `bun:"kind,pk" json:"kind"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updated_at"`
}
