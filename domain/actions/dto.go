package actions

import (
	"time"

	"github.com/google/uuid"
)

// ActionData is the nested content object of the wire contract.
type ActionData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Vision      string `json:"vision,omitempty"`
}

// ActionResponse is the wire representation of an Action.
type ActionResponse struct {
	ID             uuid.UUID  `json:"id"`
	Data           ActionData `json:"data"`
	Done           bool       `json:"done"`
	Version        int        `json:"version"`
	SubtreeSummary *string    `json:"subtreeSummary,omitempty"`
	CreatedAt      string     `json:"createdAt"`
	UpdatedAt      string     `json:"updatedAt"`
}

// EdgeResponse is the wire representation of an Edge.
type EdgeResponse struct {
	Src       uuid.UUID `json:"src"`
	Dst       uuid.UUID `json:"dst"`
	Kind      string    `json:"kind"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// ToResponse converts an Action to its wire shape, resolving the
// legacy field union.
func (a *Action) ToResponse() *ActionResponse {
	f := a.Fields()
	return &ActionResponse{
		ID: a.ID,
		Data: ActionData{
			Title:       f.Title,
			Description: f.Description,
			Vision:      f.Vision,
		},
		Done:           a.Done,
		Version:        a.Version,
		SubtreeSummary: a.SubtreeSummary,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts an Edge to its wire shape.
func (e *Edge) ToResponse() *EdgeResponse {
	return &EdgeResponse{
		Src:       e.Src,
		Dst:       e.Dst,
		Kind:      string(e.Kind),
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateActionRequest is the body of POST /actions.
type CreateActionRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Vision      string  `json:"vision"`
	ParentID    *string `json:"parent_id"`
}

// CreateChildRequest is the body of POST /actions/:id/children.
type CreateChildRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateActionRequest is the body of PATCH /actions/:id. Version is
// required: it is the version the caller read, used for the
// optimistic concurrency check.
type UpdateActionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Vision      *string `json:"vision"`
	Done        *bool   `json:"done"`
	Version     int     `json:"version"`
}

// SetSummaryRequest is the body of PUT /actions/:id/summary, written
// by the external summarizer.
type SetSummaryRequest struct {
	Summary string `json:"summary"`
}

// MoveActionRequest is the body of PUT /actions/:id/parent. A nil
// NewParentID detaches the action to a root.
type MoveActionRequest struct {
	NewParentID *string `json:"new_parent_id"`
}

// DeleteActionRequest is the body of DELETE /actions/:id.
type DeleteActionRequest struct {
	ChildHandling string  `json:"child_handling"`
	NewParentID   *string `json:"new_parent_id"`
}

// Child handling strategies for DELETE /actions/:id.
const (
	ChildHandlingDeleteRecursive = "delete_recursive"
	ChildHandlingReparent        = "reparent"
)

// CreateActionResponse is the payload of POST /actions.
type CreateActionResponse struct {
	Action            *ActionResponse `json:"action"`
	ParentID          *uuid.UUID      `json:"parent_id,omitempty"`
	DependenciesCount int             `json:"dependencies_count"`
}

// CreateChildResponse is the payload of POST /actions/:id/children.
type CreateChildResponse struct {
	Action *ActionResponse `json:"action"`
	Parent *ActionResponse `json:"parent"`
	Edge   *EdgeResponse   `json:"edge"`
}

// DeleteActionResponse is the payload of DELETE /actions/:id.
// ChildrenCount is the number of deleted descendants for
// delete_recursive, or the number of reparented children for
// reparent.
type DeleteActionResponse struct {
	DeletedAction *ActionResponse `json:"deleted_action"`
	ChildrenCount int             `json:"children_count"`
	ChildHandling string          `json:"child_handling"`
	NewParentID   *uuid.UUID      `json:"new_parent_id,omitempty"`
}
