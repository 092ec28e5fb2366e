package actions

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/embeddings"
	"github.com/actionforest/api/pkg/logger"
)

// MaxTraversalDepth caps every hierarchy walk. A forest deeper than
// this is treated as corrupt rather than walked further.
const MaxTraversalDepth = 100

// Service implements hierarchy operations on the action forest:
// create, update, move, delete, and descendant collection. All
// structural writes run inside a transaction holding the hierarchy
// advisory lock.
type Service struct {
	repo       *Repository
	embeddings *embeddings.Service
	log        *slog.Logger
}

// NewService creates a new actions service.
func NewService(repo *Repository, emb *embeddings.Service, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		embeddings: emb,
		log:        log.With(logger.Scope("actions.service")),
	}
}

// Get loads a single action.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Action, error) {
	return s.repo.GetAction(ctx, s.repo.db, id)
}

// List returns all actions ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*Action, error) {
	return s.repo.ListActions(ctx, s.repo.db)
}

// Create inserts a new action, optionally attached under a parent.
// The parent's cached summary is invalidated since its child set
// changed.
func (s *Service) Create(ctx context.Context, req *CreateActionRequest) (*CreateActionResponse, error) {
	if err := ValidateTitle(req.Title); err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		id, err := ParseID(*req.ParentID)
		if err != nil {
			return nil, apperror.NewValidation("invalid parent_id")
		}
		parentID = &id
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if parentID != nil {
		if err := s.repo.AcquireHierarchyLock(ctx, tx); err != nil {
			return nil, err
		}
		if _, err := s.repo.GetAction(ctx, tx, *parentID); err != nil {
			if errors.Is(err, apperror.ErrActionNotFound) {
				return nil, apperror.ErrParentNotFound
			}
			return nil, err
		}
	}

	action := &Action{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Vision:      req.Vision,
	}
	if err := s.repo.CreateAction(ctx, tx, action); err != nil {
		return nil, err
	}

	if parentID != nil {
		edge := &Edge{Src: *parentID, Dst: action.ID, Kind: KindChild}
		if err := s.repo.PutEdge(ctx, tx, edge); err != nil {
			return nil, err
		}
		if err := s.repo.ClearSubtreeSummary(ctx, tx, *parentID); err != nil {
			return nil, err
		}
	}

	depCount, err := s.repo.CountDependencies(ctx, tx, action.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.embedInBackground(action)

	s.log.Info("action created",
		slog.String("id", action.ID.String()),
		slog.Bool("has_parent", parentID != nil),
	)

	return &CreateActionResponse{
		Action:            action.ToResponse(),
		ParentID:          parentID,
		DependenciesCount: depCount,
	}, nil
}

// CreateChild inserts a new action under an existing parent and
// returns the new action, the parent, and the created edge.
func (s *Service) CreateChild(ctx context.Context, parentID uuid.UUID, req *CreateChildRequest) (*CreateChildResponse, error) {
	if err := ValidateTitle(req.Title); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if err := s.repo.AcquireHierarchyLock(ctx, tx); err != nil {
		return nil, err
	}

	parent, err := s.repo.GetAction(ctx, tx, parentID)
	if err != nil {
		if errors.Is(err, apperror.ErrActionNotFound) {
			return nil, apperror.ErrParentNotFound
		}
		return nil, err
	}

	action := &Action{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if err := s.repo.CreateAction(ctx, tx, action); err != nil {
		return nil, err
	}

	edge := &Edge{Src: parent.ID, Dst: action.ID, Kind: KindChild}
	if err := s.repo.PutEdge(ctx, tx, edge); err != nil {
		return nil, err
	}
	if err := s.repo.ClearSubtreeSummary(ctx, tx, parent.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.embedInBackground(action)

	return &CreateChildResponse{
		Action: action.ToResponse(),
		Parent: parent.ToResponse(),
		Edge:   edge.ToResponse(),
	}, nil
}

// Update applies a partial content update guarded by the optimistic
// version check. Content changes trigger a background re-embed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateActionRequest) (*Action, error) {
	if req.Version < 1 {
		return nil, apperror.NewValidation("version is required")
	}
	if req.Title != nil {
		if err := ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
	}

	action, err := s.repo.GetAction(ctx, s.repo.db, id)
	if err != nil {
		return nil, err
	}

	// Resolve the legacy union first so a partial update never loses
	// fields still living in the data blob.
	f := action.Fields()
	action.Title = f.Title
	action.Description = f.Description
	action.Vision = f.Vision

	contentChanged := false
	if req.Title != nil && *req.Title != action.Title {
		action.Title = strings.TrimSpace(*req.Title)
		contentChanged = true
	}
	if req.Description != nil && *req.Description != action.Description {
		action.Description = *req.Description
		contentChanged = true
	}
	if req.Vision != nil && *req.Vision != action.Vision {
		action.Vision = *req.Vision
		contentChanged = true
	}
	if req.Done != nil {
		action.Done = *req.Done
	}

	if err := s.repo.UpdateAction(ctx, s.repo.db, action, req.Version); err != nil {
		return nil, err
	}

	if contentChanged {
		s.embedInBackground(action)
	}

	return action, nil
}

// SetSummary stores the subtree summary written back by the external
// summarizer.
func (s *Service) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return s.repo.SetSubtreeSummary(ctx, s.repo.db, id, summary)
}

// Move reattaches an action under a new parent, or detaches it to a
// root when newParentID is nil. Rejected when the new parent sits in
// the moved action's own subtree. Both the old and new parent lose
// their cached summaries.
func (s *Service) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) error {
	if newParentID != nil && *newParentID == id {
		return apperror.ErrCycle.WithMessage("action cannot be its own parent")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if err := s.repo.AcquireHierarchyLock(ctx, tx); err != nil {
		return err
	}

	if _, err := s.repo.GetAction(ctx, tx, id); err != nil {
		return err
	}

	if newParentID != nil {
		if _, err := s.repo.GetAction(ctx, tx, *newParentID); err != nil {
			if errors.Is(err, apperror.ErrActionNotFound) {
				return apperror.ErrParentNotFound
			}
			return err
		}
		descendants, err := s.collectDescendants(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d == *newParentID {
				return apperror.ErrCycle.WithMessage("new parent is a descendant of the moved action")
			}
		}
	}

	oldParent, err := s.repo.GetParentEdge(ctx, tx, id)
	if err != nil {
		return err
	}
	if oldParent != nil {
		if _, err := s.repo.DeleteEdge(ctx, tx, oldParent.Src, id, KindChild); err != nil {
			return err
		}
		if err := s.repo.ClearSubtreeSummary(ctx, tx, oldParent.Src); err != nil {
			return err
		}
	}

	if newParentID != nil {
		edge := &Edge{Src: *newParentID, Dst: id, Kind: KindChild}
		if err := s.repo.PutEdge(ctx, tx, edge); err != nil {
			return err
		}
		if err := s.repo.ClearSubtreeSummary(ctx, tx, *newParentID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}

	s.log.Info("action moved",
		slog.String("id", id.String()),
		slog.Bool("to_root", newParentID == nil),
	)
	return nil
}

// Delete removes an action. With delete_recursive the whole subtree
// goes; with reparent the direct children are reattached to the given
// new parent (or become roots). Dependency edges touching deleted
// actions are removed, never rewired.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, req *DeleteActionRequest) (*DeleteActionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy := req.Strategy()

	var newParentID *uuid.UUID
	if strategy == ChildHandlingReparent && req.NewParentID != nil {
		pid, err := ParseID(*req.NewParentID)
		if err != nil {
			return nil, err
		}
		if pid == id {
			return nil, apperror.ErrCycle.WithMessage("cannot reparent children under the deleted action")
		}
		newParentID = &pid
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if err := s.repo.AcquireHierarchyLock(ctx, tx); err != nil {
		return nil, err
	}

	action, err := s.repo.GetAction(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	parentEdge, err := s.repo.GetParentEdge(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var resp *DeleteActionResponse
	switch strategy {
	case ChildHandlingDeleteRecursive:
		descendants, err := s.collectDescendants(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		doomed := append([]uuid.UUID{id}, descendants...)
		if err := s.repo.DeleteEdgesTouching(ctx, tx, doomed); err != nil {
			return nil, err
		}
		if err := s.repo.DeleteActions(ctx, tx, doomed); err != nil {
			return nil, err
		}
		resp = &DeleteActionResponse{
			DeletedAction: action.ToResponse(),
			ChildrenCount: len(descendants),
			ChildHandling: strategy,
		}

	case ChildHandlingReparent:
		if newParentID != nil {
			if _, err := s.repo.GetAction(ctx, tx, *newParentID); err != nil {
				if errors.Is(err, apperror.ErrActionNotFound) {
					return nil, apperror.ErrParentNotFound
				}
				return nil, err
			}
			descendants, err := s.collectDescendants(ctx, tx, id)
			if err != nil {
				return nil, err
			}
			for _, d := range descendants {
				if d == *newParentID {
					return nil, apperror.ErrCycle.WithMessage("new parent is a descendant of the deleted action")
				}
			}
		}

		children, err := s.repo.ChildEdges(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := s.repo.DeleteEdgesTouching(ctx, tx, []uuid.UUID{id}); err != nil {
			return nil, err
		}
		for _, child := range children {
			if newParentID == nil {
				continue // child becomes a root
			}
			edge := &Edge{Src: *newParentID, Dst: child.Dst, Kind: KindChild}
			if err := s.repo.PutEdge(ctx, tx, edge); err != nil {
				return nil, err
			}
		}
		if newParentID != nil && len(children) > 0 {
			if err := s.repo.ClearSubtreeSummary(ctx, tx, *newParentID); err != nil {
				return nil, err
			}
		}
		if err := s.repo.DeleteActions(ctx, tx, []uuid.UUID{id}); err != nil {
			return nil, err
		}
		resp = &DeleteActionResponse{
			DeletedAction: action.ToResponse(),
			ChildrenCount: len(children),
			ChildHandling: strategy,
			NewParentID:   newParentID,
		}
	}

	if parentEdge != nil {
		if err := s.repo.ClearSubtreeSummary(ctx, tx, parentEdge.Src); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.log.Info("action deleted",
		slog.String("id", id.String()),
		slog.String("child_handling", strategy),
		slog.Int("children_count", resp.ChildrenCount),
	)
	return resp, nil
}

// collectDescendants walks the subtree under root breadth-first,
// level by level, and returns every descendant id. Depth is bounded
// by MaxTraversalDepth.
func (s *Service) collectDescendants(ctx context.Context, db bun.IDB, root uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	seen := map[uuid.UUID]bool{root: true}
	frontier := []uuid.UUID{root}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= MaxTraversalDepth {
			return nil, apperror.ErrMaxDepth
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		edges, err := s.repo.ChildEdgesOf(ctx, db, frontier)
		if err != nil {
			return nil, err
		}
		var next []uuid.UUID
		for _, e := range edges {
			if seen[e.Dst] {
				continue
			}
			seen[e.Dst] = true
			out = append(out, e.Dst)
			next = append(next, e.Dst)
		}
		frontier = next
	}
	return out, nil
}

// embedInBackground regenerates the action's embedding without
// blocking the request. Failures are logged and the row keeps its
// previous (or null) embedding.
func (s *Service) embedInBackground(action *Action) {
	if !s.embeddings.IsEnabled() {
		return
	}
	f := action.Fields()
	text := strings.TrimSpace(f.Title + "\n" + f.Description)
	id := action.ID

	go func() {
		ctx := context.Background()
		vec, err := s.embeddings.EmbedDocuments(ctx, []string{text})
		if err != nil || len(vec) == 0 {
			s.log.Warn("embedding generation failed",
				slog.String("id", id.String()),
				logger.Error(err),
			)
			return
		}
		if err := s.repo.UpdateEmbedding(ctx, id, vec[0]); err != nil {
			s.log.Warn("embedding update failed",
				slog.String("id", id.String()),
				logger.Error(err),
			)
		}
	}()
}
