package dependencies

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/logger"
)

// Service maintains the dependency DAG between actions. The cycle
// check and the insert run in one transaction under the dependency
// advisory lock, so two concurrent adds cannot jointly close a cycle.
type Service struct {
	repo *actions.Repository
	log  *slog.Logger
}

// NewService creates a new dependencies service.
func NewService(repo *actions.Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(logger.Scope("dependencies.service")),
	}
}

// AddResult carries the created edge plus both endpoints.
type AddResult struct {
	Edge      *actions.Edge
	Action    *actions.Action
	DependsOn *actions.Action
}

// RemoveResult carries the endpoints and the removed edge, nil when
// no edge existed.
type RemoveResult struct {
	Action      *actions.Action
	DependsOn   *actions.Action
	DeletedEdge *actions.Edge
}

// Add inserts the dependency edge actionID -> dependsOnID. Fails with
// SelfDependency, DuplicateEdge, or CycleError.
func (s *Service) Add(ctx context.Context, actionID, dependsOnID uuid.UUID) (*AddResult, error) {
	if actionID == dependsOnID {
		return nil, apperror.ErrSelfDependency
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if err := s.repo.AcquireDependencyLock(ctx, tx); err != nil {
		return nil, err
	}

	action, err := s.repo.GetAction(ctx, tx, actionID)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.repo.GetAction(ctx, tx, dependsOnID)
	if err != nil {
		return nil, err
	}

	edges, err := s.repo.EdgesByKind(ctx, tx, actions.KindDependency)
	if err != nil {
		return nil, err
	}
	adjacency := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, e := range edges {
		adjacency[e.Src] = append(adjacency[e.Src], e.Dst)
	}
	if WouldCycle(adjacency, actionID, dependsOnID) {
		return nil, apperror.ErrCycle.WithMessage("dependency would create a cycle")
	}

	edge := &actions.Edge{Src: actionID, Dst: dependsOnID, Kind: actions.KindDependency}
	if err := s.repo.PutEdge(ctx, tx, edge); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.log.Info("dependency added",
		slog.String("action", actionID.String()),
		slog.String("depends_on", dependsOnID.String()),
	)

	return &AddResult{Edge: edge, Action: action, DependsOn: dependsOn}, nil
}

// Remove deletes the dependency edge if present. Removing a missing
// edge is a no-op, not an error; missing endpoints still 404.
func (s *Service) Remove(ctx context.Context, actionID, dependsOnID uuid.UUID) (*RemoveResult, error) {
	db := s.repo.DB()

	action, err := s.repo.GetAction(ctx, db, actionID)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.repo.GetAction(ctx, db, dependsOnID)
	if err != nil {
		return nil, err
	}

	edge, err := s.repo.GetEdge(ctx, db, actionID, dependsOnID, actions.KindDependency)
	if err != nil {
		return nil, err
	}
	if edge != nil {
		if _, err := s.repo.DeleteEdge(ctx, db, actionID, dependsOnID, actions.KindDependency); err != nil {
			return nil, err
		}
	}

	return &RemoveResult{Action: action, DependsOn: dependsOn, DeletedEdge: edge}, nil
}
