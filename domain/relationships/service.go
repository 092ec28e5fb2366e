package relationships

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/actionforest/api/domain/actions"
	"github.com/actionforest/api/pkg/apperror"
	"github.com/actionforest/api/pkg/logger"
)

// Relationship tags returned by Flags.
const (
	TagAncestor   = "ancestor"
	TagChild      = "child"
	TagSibling    = "sibling"
	TagDependency = "dependency"
	TagDependent  = "dependent"
)

// Service is the read side of the graph: traversals over child and
// dependency edges. It never mutates; a cancelled context stops a
// traversal mid-walk.
type Service struct {
	repo *actions.Repository
	log  *slog.Logger
}

// NewService creates a new relationships service.
func NewService(repo *actions.Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(logger.Scope("relationships.service")),
	}
}

// Ancestors walks incoming child edges up to the root, ordered
// root-first. A walk longer than the depth cap means the forest
// invariant is broken and fails loudly.
func (s *Service) Ancestors(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	db := s.repo.DB()

	var chain []uuid.UUID
	current := id
	for depth := 0; ; depth++ {
		if depth >= actions.MaxTraversalDepth {
			return nil, apperror.ErrMaxDepth
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		edge, err := s.repo.GetParentEdge(ctx, db, current)
		if err != nil {
			return nil, err
		}
		if edge == nil {
			break
		}
		chain = append(chain, edge.Src)
		current = edge.Src
	}

	// chain is child-first; reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return s.loadOrdered(ctx, db, chain)
}

// Children returns the direct children, in sibling order.
func (s *Service) Children(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	db := s.repo.DB()
	edges, err := s.repo.ChildEdges(ctx, db, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Dst)
	}
	return s.loadOrdered(ctx, db, ids)
}

// Descendants returns the full transitive closure under id,
// breadth-first.
func (s *Service) Descendants(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	db := s.repo.DB()

	var out []uuid.UUID
	seen := map[uuid.UUID]bool{id: true}
	frontier := []uuid.UUID{id}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= actions.MaxTraversalDepth {
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
	return s.loadOrdered(ctx, db, out)
}

// Siblings returns the other children of id's parent. Roots have no
// siblings.
func (s *Service) Siblings(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	db := s.repo.DB()
	parent, err := s.repo.GetParentEdge(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}
	edges, err := s.repo.ChildEdges(ctx, db, parent.Src)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, e := range edges {
		if e.Dst != id {
			ids = append(ids, e.Dst)
		}
	}
	return s.loadOrdered(ctx, db, ids)
}

// Dependencies returns the actions id directly depends on.
func (s *Service) Dependencies(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	return s.dependencyNeighbors(ctx, id, true)
}

// Dependents returns the actions directly depending on id.
func (s *Service) Dependents(ctx context.Context, id uuid.UUID) ([]*actions.Action, error) {
	return s.dependencyNeighbors(ctx, id, false)
}

func (s *Service) dependencyNeighbors(ctx context.Context, id uuid.UUID, outgoing bool) ([]*actions.Action, error) {
	db := s.repo.DB()
	edges, err := s.repo.EdgesTouching(ctx, db, id)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, e := range edges {
		if e.Kind != actions.KindDependency {
			continue
		}
		if outgoing && e.Src == id {
			ids = append(ids, e.Dst)
		}
		if !outgoing && e.Dst == id {
			ids = append(ids, e.Src)
		}
	}
	return s.loadOrdered(ctx, db, ids)
}

// Flags classifies each candidate against id, returning the subset of
// relationship tags that apply. Consumers use this to render an
// action appearing in several categories exactly once.
func (s *Service) Flags(ctx context.Context, id uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID][]string, error) {
	ancestors, err := s.Ancestors(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.Siblings(ctx, id)
	if err != nil {
		return nil, err
	}
	dependencies, err := s.Dependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	dependents, err := s.Dependents(ctx, id)
	if err != nil {
		return nil, err
	}

	sets := map[string]map[uuid.UUID]bool{
		TagAncestor:   idSet(ancestors),
		TagChild:      idSet(children),
		TagSibling:    idSet(siblings),
		TagDependency: idSet(dependencies),
		TagDependent:  idSet(dependents),
	}

	out := make(map[uuid.UUID][]string, len(candidates))
	for _, candidate := range candidates {
		var tags []string
		for _, tag := range []string{TagAncestor, TagChild, TagSibling, TagDependency, TagDependent} {
			if sets[tag][candidate] {
				tags = append(tags, tag)
			}
		}
		out[candidate] = tags
	}
	return out, nil
}

func idSet(list []*actions.Action) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(list))
	for _, a := range list {
		set[a.ID] = true
	}
	return set
}

// loadOrdered fetches the given actions and returns them in the order
// of ids.
func (s *Service) loadOrdered(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*actions.Action, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	loaded, err := s.repo.GetActions(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*actions.Action, len(loaded))
	for _, a := range loaded {
		byID[a.ID] = a
	}
	out := make([]*actions.Action, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// TreeNode is one node of the nested tree payload.
type TreeNode struct {
	*actions.ActionResponse
	Children []*TreeNode `json:"children"`
}

// Tree builds the nested descendant tree under rootID, or the whole
// forest when rootID is nil. Built iteratively with an explicit depth
// counter: a walk past the cap means a structural cycle and fails
// with MaxDepthExceeded instead of overflowing the stack.
func (s *Service) Tree(ctx context.Context, rootID *uuid.UUID) ([]*TreeNode, error) {
	db := s.repo.DB()

	all, err := s.repo.ListActions(ctx, db)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.EdgesByKind(ctx, db, actions.KindChild)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*actions.Action, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	childIDs := make(map[uuid.UUID][]uuid.UUID, len(edges))
	hasParent := make(map[uuid.UUID]bool, len(edges))
	for _, e := range edges {
		childIDs[e.Src] = append(childIDs[e.Src], e.Dst)
		hasParent[e.Dst] = true
	}
	for _, ids := range childIDs {
		ordered := ids
		sort.Slice(ordered, func(i, j int) bool {
			a, b := byID[ordered[i]], byID[ordered[j]]
			if a == nil || b == nil {
				return a != nil
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})
	}

	var roots []uuid.UUID
	if rootID != nil {
		if _, ok := byID[*rootID]; !ok {
			return nil, apperror.ErrActionNotFound
		}
		roots = []uuid.UUID{*rootID}
	} else {
		for _, a := range all {
			if !hasParent[a.ID] {
				roots = append(roots, a.ID)
			}
		}
	}

	nodes := make([]*TreeNode, 0, len(roots))
	for _, r := range roots {
		node, err := s.buildSubtree(ctx, r, byID, childIDs)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

type treeFrame struct {
	id    uuid.UUID
	node  *TreeNode
	depth int
}

func (s *Service) buildSubtree(ctx context.Context, root uuid.UUID, byID map[uuid.UUID]*actions.Action, childIDs map[uuid.UUID][]uuid.UUID) (*TreeNode, error) {
	rootNode := &TreeNode{ActionResponse: byID[root].ToResponse(), Children: []*TreeNode{}}
	stack := []treeFrame{{id: root, node: rootNode, depth: 0}}
	seen := map[uuid.UUID]bool{root: true}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.depth >= actions.MaxTraversalDepth {
			return nil, apperror.ErrMaxDepth
		}
		for _, childID := range childIDs[frame.id] {
			if seen[childID] {
				return nil, apperror.ErrMaxDepth.WithMessage("cycle detected in hierarchy")
			}
			seen[childID] = true
			child, ok := byID[childID]
			if !ok {
				continue
			}
			childNode := &TreeNode{ActionResponse: child.ToResponse(), Children: []*TreeNode{}}
			frame.node.Children = append(frame.node.Children, childNode)
			stack = append(stack, treeFrame{id: childID, node: childNode, depth: frame.depth + 1})
		}
	}
	return rootNode, nil
}
