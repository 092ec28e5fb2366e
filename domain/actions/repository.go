package actions

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/actionforest/api/internal/database"
	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/embeddings"
	"github.com/actionforest/api/pkg/logger"
)

// Advisory lock keys. Structural writes to the child forest and the
// dependency DAG each serialize on a graph-wide key: cycle and
// single-parent checks read the whole edge set, so per-row locks
// cannot make them safe.
const (
	lockKeyHierarchy  = "edges|child"
	lockKeyDependency = "edges|dependency"
)

// Repository is the persistence layer for actions and edges.
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new actions repository.
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("actions.repository")),
	}
}

// DB exposes the non-transactional handle for single-statement reads
// by services in other domains.
func (r *Repository) DB() bun.IDB {
	return r.db
}

// BeginTx starts a transaction whose Rollback is safe after Commit.
func (r *Repository) BeginTx(ctx context.Context) (*database.SafeTx, error) {
	return database.BeginSafeTx(ctx, r.db)
}

// AcquireHierarchyLock takes the transaction-scoped advisory lock that
// serializes child-edge mutations. Released automatically at commit or
// rollback.
func (r *Repository) AcquireHierarchyLock(ctx context.Context, tx bun.IDB) error {
	return acquireLock(ctx, tx, lockKeyHierarchy)
}

// AcquireDependencyLock takes the transaction-scoped advisory lock
// that serializes dependency-edge mutations.
func (r *Repository) AcquireDependencyLock(ctx context.Context, tx bun.IDB) error {
	return acquireLock(ctx, tx, lockKeyDependency)
}

func acquireLock(ctx context.Context, tx bun.IDB, key string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?)::bigint)", key).Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// GetAction loads a single action by id.
func (r *Repository) GetAction(ctx context.Context, db bun.IDB, id uuid.UUID) (*Action, error) {
	action := new(Action)
	err := db.NewSelect().Model(action).Where("a.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrActionNotFound
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return action, nil
}

// GetActions loads the given actions in one query. Missing ids are
// simply absent from the result.
func (r *Repository) GetActions(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*Action, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*Action
	err := db.NewSelect().Model(&out).Where("a.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// ListActions returns all actions ordered by creation time.
func (r *Repository) ListActions(ctx context.Context, db bun.IDB) ([]*Action, error) {
	var out []*Action
	err := db.NewSelect().Model(&out).Order("a.created_at ASC").Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// CreateAction inserts a new action and returns it with generated
// columns populated.
func (r *Repository) CreateAction(ctx context.Context, db bun.IDB, action *Action) error {
	_, err := db.NewInsert().Model(action).Returning("*").Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// UpdateAction writes the content columns of an action guarded by the
// optimistic version check. The row's version is bumped on success.
// Returns VersionConflict when the row exists at a different version
// and ActionNotFound when it does not exist at all.
func (r *Repository) UpdateAction(ctx context.Context, db bun.IDB, action *Action, expectedVersion int) error {
	res, err := db.NewUpdate().Model(action).
		Set("title = ?", action.Title).
		Set("description = ?", action.Description).
		Set("vision = ?", action.Vision).
		Set("done = ?", action.Done).
		Set("version = version + 1").
		Set("updated_at = now()").
		Where("a.id = ?", action.ID).
		Where("a.version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	if rows == 0 {
		exists, err := r.actionExists(ctx, db, action.ID)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.ErrActionNotFound
		}
		return apperror.ErrVersionConflict
	}
	action.Version = expectedVersion + 1
	return nil
}

func (r *Repository) actionExists(ctx context.Context, db bun.IDB, id uuid.UUID) (bool, error) {
	exists, err := db.NewSelect().Model((*Action)(nil)).Where("a.id = ?", id).Exists(ctx)
	if err != nil {
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return exists, nil
}

// SetSubtreeSummary stores the cached summary for an action.
func (r *Repository) SetSubtreeSummary(ctx context.Context, db bun.IDB, id uuid.UUID, summary string) error {
	res, err := db.NewUpdate().Model((*Action)(nil)).
		Set("subtree_summary = ?", summary).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	if rows == 0 {
		return apperror.ErrActionNotFound
	}
	return nil
}

// ClearSubtreeSummary nulls the cached summary for an action. A no-op
// when the action does not exist; invalidation never fails a mutation
// on the actual subject.
func (r *Repository) ClearSubtreeSummary(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	_, err := db.NewUpdate().Model((*Action)(nil)).
		Set("subtree_summary = NULL").
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// UpdateEmbedding stores the embedding vector for an action. The
// vector column is written via raw SQL with the pgvector text format.
func (r *Repository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	_, err := r.db.NewRaw(
		"UPDATE actions SET embedding = ?::vector WHERE id = ?",
		embeddings.VectorLiteral(embedding), id,
	).Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// DeleteActions removes the given actions. Edge rows are removed by
// the caller first; the schema has no cascade.
func (r *Repository) DeleteActions(ctx context.Context, db bun.IDB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.NewDelete().Model((*Action)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// PutEdge inserts an edge, returning DuplicateEdge when the exact
// (src, dst, kind) row already exists.
func (r *Repository) PutEdge(ctx context.Context, db bun.IDB, edge *Edge) error {
	res, err := db.NewInsert().Model(edge).
		On("CONFLICT (src, dst, kind) DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	if rows == 0 {
		return apperror.ErrDuplicateEdge
	}
	return nil
}

// GetEdge loads a single edge, or nil when it does not exist.
func (r *Repository) GetEdge(ctx context.Context, db bun.IDB, src, dst uuid.UUID, kind EdgeKind) (*Edge, error) {
	edge := new(Edge)
	err := db.NewSelect().Model(edge).
		Where("e.src = ?", src).
		Where("e.dst = ?", dst).
		Where("e.kind = ?", kind).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edge, nil
}

// DeleteEdge removes a single edge. Returns the number of rows
// removed; deleting a missing edge is not an error.
func (r *Repository) DeleteEdge(ctx context.Context, db bun.IDB, src, dst uuid.UUID, kind EdgeKind) (int64, error) {
	res, err := db.NewDelete().Model((*Edge)(nil)).
		Where("src = ?", src).
		Where("dst = ?", dst).
		Where("kind = ?", kind).
		Exec(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return rows, nil
}

// DeleteEdgesTouching removes every edge with any of the given
// actions as either endpoint, across both kinds.
func (r *Repository) DeleteEdgesTouching(ctx context.Context, db bun.IDB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.NewDelete().Model((*Edge)(nil)).
		Where("src IN (?) OR dst IN (?)", bun.In(ids), bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// GetParentEdge returns the child edge pointing at the given action,
// or nil when the action is a root.
func (r *Repository) GetParentEdge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Edge, error) {
	edge := new(Edge)
	err := db.NewSelect().Model(edge).
		Where("e.dst = ?", id).
		Where("e.kind = ?", KindChild).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edge, nil
}

// ChildEdges returns the child edges out of the given action, ordered
// by creation time so sibling order is stable.
func (r *Repository) ChildEdges(ctx context.Context, db bun.IDB, id uuid.UUID) ([]*Edge, error) {
	var out []*Edge
	err := db.NewSelect().Model(&out).
		Where("e.src = ?", id).
		Where("e.kind = ?", KindChild).
		Order("e.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// ChildEdgesOf returns child edges whose src is any of the given
// actions. Used for level-by-level descendant collection.
func (r *Repository) ChildEdgesOf(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*Edge
	err := db.NewSelect().Model(&out).
		Where("e.src IN (?)", bun.In(ids)).
		Where("e.kind = ?", KindChild).
		Order("e.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// EdgesByKind returns every edge of the given kind. The dependency
// cycle check loads the full DAG through this.
func (r *Repository) EdgesByKind(ctx context.Context, db bun.IDB, kind EdgeKind) ([]*Edge, error) {
	var out []*Edge
	err := db.NewSelect().Model(&out).
		Where("e.kind = ?", kind).
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// EdgesTouching returns every edge with the given action as either
// endpoint.
func (r *Repository) EdgesTouching(ctx context.Context, db bun.IDB, id uuid.UUID) ([]*Edge, error) {
	var out []*Edge
	err := db.NewSelect().Model(&out).
		Where("e.src = ? OR e.dst = ?", id, id).
		Order("e.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}

// CountDependencies returns the number of dependency edges out of the
// given action.
func (r *Repository) CountDependencies(ctx context.Context, db bun.IDB, id uuid.UUID) (int, error) {
	count, err := db.NewSelect().Model((*Edge)(nil)).
		Where("e.src = ?", id).
		Where("e.kind = ?", KindDependency).
		Count(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return count, nil
}

// RootActions returns actions with no incoming child edge, ordered by
// creation time.
func (r *Repository) RootActions(ctx context.Context, db bun.IDB) ([]*Action, error) {
	var out []*Action
	err := db.NewSelect().Model(&out).
		Where("NOT EXISTS (SELECT 1 FROM edges e WHERE e.dst = a.id AND e.kind = ?)", KindChild).
		Order("a.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return out, nil
}
