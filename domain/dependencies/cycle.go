package dependencies

import (
	"github.com/google/uuid"
)

// WouldCycle reports whether adding the edge src -> dst to the given
// dependency adjacency (edge src depends on dst) would close a cycle.
// That happens exactly when dst can already reach src. Iterative DFS;
// the graph is a DAG before the insert so no visited-set blowup.
func WouldCycle(adjacency map[uuid.UUID][]uuid.UUID, src, dst uuid.UUID) bool {
	if src == dst {
		return true
	}

	visited := map[uuid.UUID]bool{}
	stack := []uuid.UUID{dst}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == src {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, adjacency[node]...)
	}
	return false
}
