package actions

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionforest/api/internal/testutil"
	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/embeddings"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	tdb := testutil.SetupTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewRepository(tdb.DB, log)
	return NewService(repo, embeddings.NewNoopService(log), log), repo
}

func mustCreate(t *testing.T, svc *Service, title string, parentID *uuid.UUID) uuid.UUID {
	t.Helper()
	req := &CreateActionRequest{Title: title}
	if parentID != nil {
		raw := parentID.String()
		req.ParentID = &raw
	}
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	return resp.Action.ID
}

func descendantSet(t *testing.T, svc *Service, id uuid.UUID) map[uuid.UUID]bool {
	t.Helper()
	ids, err := svc.collectDescendants(context.Background(), svc.repo.db, id)
	require.NoError(t, err)
	set := make(map[uuid.UUID]bool, len(ids))
	for _, d := range ids {
		set[d] = true
	}
	return set
}

func childEdgeCount(t *testing.T, repo *Repository, dst uuid.UUID) int {
	t.Helper()
	n, err := repo.db.NewSelect().Model((*Edge)(nil)).
		Where("dst = ?", dst).
		Where("kind = ?", KindChild).
		Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestMoveToRootPreservesSubtree(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", &a)
	c := mustCreate(t, svc, "C", &b)

	before := descendantSet(t, svc, b)

	require.NoError(t, svc.Move(ctx, b, nil))

	// B is now a root, C remains its child, A has no children
	parent, err := repo.GetParentEdge(ctx, repo.db, b)
	require.NoError(t, err)
	assert.Nil(t, parent)

	cParent, err := repo.GetParentEdge(ctx, repo.db, c)
	require.NoError(t, err)
	require.NotNil(t, cParent)
	assert.Equal(t, b, cParent.Src)

	aChildren, err := repo.ChildEdges(ctx, repo.db, a)
	require.NoError(t, err)
	assert.Empty(t, aChildren)

	assert.Equal(t, before, descendantSet(t, svc, b))
}

func TestMoveUnderNewParentPreservesDescendants(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	r := mustCreate(t, svc, "R", nil)
	b := mustCreate(t, svc, "B", &a)
	mustCreate(t, svc, "B1", &b)
	mustCreate(t, svc, "B2", &b)

	before := descendantSet(t, svc, b)

	require.NoError(t, svc.Move(ctx, b, &r))

	parent, err := repo.GetParentEdge(ctx, repo.db, b)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, r, parent.Src)
	assert.Equal(t, before, descendantSet(t, svc, b))

	// Forest invariant: still exactly one parent edge
	assert.Equal(t, 1, childEdgeCount(t, repo, b))
}

func TestMoveRejectsCycles(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", &a)
	c := mustCreate(t, svc, "C", &b)

	err := svc.Move(ctx, a, &a)
	assert.ErrorIs(t, err, apperror.ErrCycle)

	err = svc.Move(ctx, a, &c)
	assert.ErrorIs(t, err, apperror.ErrCycle)

	// The rejected moves left the forest untouched
	parent, err := repo.GetParentEdge(ctx, repo.db, a)
	require.NoError(t, err)
	assert.Nil(t, parent)
	assert.Equal(t, 1, childEdgeCount(t, repo, c))
}

func TestCreateParentNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	missing := uuid.New()
	_, err := svc.Create(context.Background(), &CreateActionRequest{
		Title:    "orphan",
		ParentID: ptr(missing.String()),
	})
	assert.ErrorIs(t, err, apperror.ErrParentNotFound)
}

func TestCreateChildClearsParentSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, "parent", nil)
	require.NoError(t, svc.SetSummary(ctx, parent, "stale summary"))

	_, err := svc.CreateChild(ctx, parent, &CreateChildRequest{Title: "child"})
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, parent)
	require.NoError(t, err)
	assert.Nil(t, reloaded.SubtreeSummary)
}

func TestDeleteRecursiveRemovesSubtree(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", &a)
	c := mustCreate(t, svc, "C", &b)
	outsider := mustCreate(t, svc, "outsider", nil)

	// A dependency edge into the doomed subtree must go too
	dep := &Edge{Src: outsider, Dst: c, Kind: KindDependency}
	require.NoError(t, repo.PutEdge(ctx, repo.db, dep))

	resp, err := svc.Delete(ctx, a, &DeleteActionRequest{ChildHandling: ChildHandlingDeleteRecursive})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ChildrenCount)

	for _, id := range []uuid.UUID{a, b, c} {
		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, apperror.ErrActionNotFound)
	}

	edge, err := repo.GetEdge(ctx, repo.db, outsider, c, KindDependency)
	require.NoError(t, err)
	assert.Nil(t, edge)

	_, err = svc.Get(ctx, outsider)
	assert.NoError(t, err)
}

func TestDeleteReparentReattachesChildren(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	r := mustCreate(t, svc, "R", nil)
	b := mustCreate(t, svc, "B", &a)
	c := mustCreate(t, svc, "C", &a)
	b1 := mustCreate(t, svc, "B1", &b)

	blocker := mustCreate(t, svc, "blocker", nil)
	dep := &Edge{Src: a, Dst: blocker, Kind: KindDependency}
	require.NoError(t, repo.PutEdge(ctx, repo.db, dep))

	resp, err := svc.Delete(ctx, a, &DeleteActionRequest{
		ChildHandling: ChildHandlingReparent,
		NewParentID:   ptr(r.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ChildrenCount)

	// Each prior direct child now hangs off R, its own subtree intact
	for _, child := range []uuid.UUID{b, c} {
		parent, err := repo.GetParentEdge(ctx, repo.db, child)
		require.NoError(t, err)
		require.NotNil(t, parent)
		assert.Equal(t, r, parent.Src)
		assert.Equal(t, 1, childEdgeCount(t, repo, child))
	}
	b1Parent, err := repo.GetParentEdge(ctx, repo.db, b1)
	require.NoError(t, err)
	require.NotNil(t, b1Parent)
	assert.Equal(t, b, b1Parent.Src)

	// Dangling dependencies are removed, not rewired
	edge, err := repo.GetEdge(ctx, repo.db, a, blocker, KindDependency)
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestDeleteReparentToRoot(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", &a)

	resp, err := svc.Delete(ctx, a, &DeleteActionRequest{ChildHandling: ChildHandlingReparent})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ChildrenCount)

	parent, err := repo.GetParentEdge(ctx, repo.db, b)
	require.NoError(t, err)
	assert.Nil(t, parent)
}

func TestUpdateVersionConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id := mustCreate(t, svc, "draft", nil)

	updated, err := svc.Update(ctx, id, &UpdateActionRequest{
		Title:   ptr("draft v2"),
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// A second writer holding the stale version must lose
	_, err = svc.Update(ctx, id, &UpdateActionRequest{
		Title:   ptr("draft v2 again"),
		Version: 1,
	})
	assert.ErrorIs(t, err, apperror.ErrVersionConflict)
}

func ptr(s string) *string { return &s }
