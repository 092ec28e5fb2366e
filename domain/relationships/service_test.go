package relationships

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/pkg/apperror"
)

func actionFixture(title string) *actions.Action {
	return &actions.Action{ID: uuid.New(), Title: title}
}

func TestBuildSubtree(t *testing.T) {
	s := &Service{}

	root := actionFixture("root")
	childA := actionFixture("a")
	childB := actionFixture("b")
	grandchild := actionFixture("a1")

	byID := map[uuid.UUID]*actions.Action{
		root.ID:       root,
		childA.ID:     childA,
		childB.ID:     childB,
		grandchild.ID: grandchild,
	}
	childIDs := map[uuid.UUID][]uuid.UUID{
		root.ID:   {childA.ID, childB.ID},
		childA.ID: {grandchild.ID},
	}

	node, err := s.buildSubtree(context.Background(), root.ID, byID, childIDs)
	require.NoError(t, err)

	assert.Equal(t, root.ID, node.ID)
	require.Len(t, node.Children, 2)
	assert.Equal(t, childA.ID, node.Children[0].ID)
	assert.Equal(t, childB.ID, node.Children[1].ID)
	require.Len(t, node.Children[0].Children, 1)
	assert.Equal(t, grandchild.ID, node.Children[0].Children[0].ID)
	assert.Empty(t, node.Children[1].Children)
}

func TestBuildSubtreeDetectsCycle(t *testing.T) {
	s := &Service{}

	a := actionFixture("a")
	b := actionFixture("b")

	byID := map[uuid.UUID]*actions.Action{a.ID: a, b.ID: b}
	// a -> b -> a should never exist, but a corrupt store must fail
	// loudly instead of looping
	childIDs := map[uuid.UUID][]uuid.UUID{
		a.ID: {b.ID},
		b.ID: {a.ID},
	}

	_, err := s.buildSubtree(context.Background(), a.ID, byID, childIDs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrMaxDepth))
}

func TestBuildSubtreeDepthGuard(t *testing.T) {
	s := &Service{}

	byID := map[uuid.UUID]*actions.Action{}
	childIDs := map[uuid.UUID][]uuid.UUID{}

	ids := make([]uuid.UUID, actions.MaxTraversalDepth+2)
	for i := range ids {
		ids[i] = uuid.New()
		byID[ids[i]] = &actions.Action{ID: ids[i], Title: "n"}
		if i > 0 {
			childIDs[ids[i-1]] = []uuid.UUID{ids[i]}
		}
	}

	_, err := s.buildSubtree(context.Background(), ids[0], byID, childIDs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrMaxDepth))
}

func TestBuildSubtreeStopsOnCancel(t *testing.T) {
	s := &Service{}

	root := actionFixture("root")
	child := actionFixture("child")
	byID := map[uuid.UUID]*actions.Action{root.ID: root, child.ID: child}
	childIDs := map[uuid.UUID][]uuid.UUID{root.ID: {child.ID}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.buildSubtree(ctx, root.ID, byID, childIDs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectIDsDeduplicates(t *testing.T) {
	a := actionFixture("a")
	b := actionFixture("b")

	ids := collectIDs(
		[]*actions.Action{a, b},
		[]*actions.Action{b, a},
	)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)
}
