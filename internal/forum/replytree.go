package forum

import (
	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/models"
)

// MaxReplyDepth bounds nested-reply indentation. Replies past the ceiling
// are attached flattened at the ceiling instead of being dropped.
const MaxReplyDepth = 4

// ReplyNode is one message in the display tree.
type ReplyNode struct {
	Message  models.Message `json:"message"`
	Depth    int            `json:"depth"`
	Children []*ReplyNode   `json:"children,omitempty"`
}

// BuildReplyTree groups a flat, chronologically ordered list of reply
// messages (the thread's body message excluded) into a nested tree.
//
// Messages with no parent_id, a parent_id that does not resolve within the
// set, or a parent_id that would close a cycle are placed at top level.
// Sibling order follows input order. The walk tracks visited ids so a
// client-supplied parent cycle can never recurse unbounded.
func BuildReplyTree(messages []models.Message, maxDepth int) []*ReplyNode {
	if maxDepth <= 0 {
		maxDepth = MaxReplyDepth
	}

	byID := make(map[uuid.UUID]*models.Message, len(messages))
	childIDs := make(map[uuid.UUID][]uuid.UUID, len(messages))
	var topLevel []uuid.UUID

	for i := range messages {
		m := &messages[i]
		byID[m.ID] = m
	}

	visited := make(map[uuid.UUID]bool, len(messages))
	for i := range messages {
		m := &messages[i]
		switch {
		case m.ParentID == nil:
			topLevel = append(topLevel, m.ID)
		case byID[*m.ParentID] == nil:
			// Parent not in set; treat as top-level.
			topLevel = append(topLevel, m.ID)
		case formsCycle(m.ID, byID):
			topLevel = append(topLevel, m.ID)
		default:
			childIDs[*m.ParentID] = append(childIDs[*m.ParentID], m.ID)
		}
	}

	var build func(id uuid.UUID, depth int) *ReplyNode
	build = func(id uuid.UUID, depth int) *ReplyNode {
		visited[id] = true
		node := &ReplyNode{Message: *byID[id], Depth: depth}
		for _, childID := range childIDs[id] {
			if visited[childID] {
				continue
			}
			if depth >= maxDepth {
				// Depth ceiling: attach the whole remaining chain
				// flattened under this node.
				node.Children = append(node.Children, flatten(childID, childIDs, byID, visited, depth)...)
				continue
			}
			node.Children = append(node.Children, build(childID, depth+1))
		}
		return node
	}

	tree := make([]*ReplyNode, 0, len(topLevel))
	for _, id := range topLevel {
		if visited[id] {
			continue
		}
		tree = append(tree, build(id, 1))
	}
	return tree
}

// flatten collects id and all its descendants as non-indented children at
// the given depth, preserving input order.
func flatten(id uuid.UUID, childIDs map[uuid.UUID][]uuid.UUID, byID map[uuid.UUID]*models.Message, visited map[uuid.UUID]bool, depth int) []*ReplyNode {
	if visited[id] {
		return nil
	}
	visited[id] = true
	nodes := []*ReplyNode{{Message: *byID[id], Depth: depth}}
	for _, childID := range childIDs[id] {
		nodes = append(nodes, flatten(childID, childIDs, byID, visited, depth)...)
	}
	return nodes
}

// formsCycle walks parent links from id, reporting whether they revisit id
// before terminating at a root or an unresolved parent.
func formsCycle(id uuid.UUID, byID map[uuid.UUID]*models.Message) bool {
	seen := map[uuid.UUID]bool{id: true}
	cur := byID[id]
	for cur != nil && cur.ParentID != nil {
		next := byID[*cur.ParentID]
		if next == nil {
			return false
		}
		if seen[next.ID] {
			return true
		}
		seen[next.ID] = true
		cur = next
	}
	return false
}
