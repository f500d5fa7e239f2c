package forum

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

func msg(id uuid.UUID, parent *uuid.UUID) models.Message {
	return models.Message{ID: id, ParentID: parent}
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestBuildReplyTreeNesting(t *testing.T) {
	u := ids(4)
	messages := []models.Message{
		msg(u[0], nil),
		msg(u[1], &u[0]),
		msg(u[2], &u[0]),
		msg(u[3], nil),
	}

	tree := BuildReplyTree(messages, MaxReplyDepth)
	require.Len(t, tree, 2)
	require.Equal(t, u[0], tree[0].Message.ID)
	require.Equal(t, 1, tree[0].Depth)
	require.Len(t, tree[0].Children, 2)
	require.Equal(t, u[1], tree[0].Children[0].Message.ID)
	require.Equal(t, u[2], tree[0].Children[1].Message.ID)
	require.Equal(t, 2, tree[0].Children[0].Depth)
	require.Equal(t, u[3], tree[1].Message.ID)
}

func TestBuildReplyTreeUnresolvedParentIsTopLevel(t *testing.T) {
	u := ids(2)
	orphanParent := uuid.New()
	messages := []models.Message{
		msg(u[0], nil),
		msg(u[1], &orphanParent),
	}

	tree := BuildReplyTree(messages, MaxReplyDepth)
	require.Len(t, tree, 2)
	require.Equal(t, u[1], tree[1].Message.ID)
	require.Equal(t, 1, tree[1].Depth)
}

func TestBuildReplyTreeFlattensAtDepthCeiling(t *testing.T) {
	// Chain of five: depths 1..4, the fifth attaches flattened at the
	// ceiling instead of indenting further.
	u := ids(5)
	messages := []models.Message{
		msg(u[0], nil),
		msg(u[1], &u[0]),
		msg(u[2], &u[1]),
		msg(u[3], &u[2]),
		msg(u[4], &u[3]),
	}

	tree := BuildReplyTree(messages, 4)
	require.Len(t, tree, 1)

	node := tree[0]
	for depth := 1; depth <= 3; depth++ {
		require.Equal(t, depth, node.Depth)
		require.Len(t, node.Children, 1)
		node = node.Children[0]
	}
	// node is u[3] at the ceiling; u[4] hangs off it without indenting.
	require.Equal(t, u[3], node.Message.ID)
	require.Equal(t, 4, node.Depth)
	require.Len(t, node.Children, 1)
	require.Equal(t, u[4], node.Children[0].Message.ID)
	require.Equal(t, 4, node.Children[0].Depth)
	require.Empty(t, node.Children[0].Children)
}

func TestBuildReplyTreeCycleGoesTopLevel(t *testing.T) {
	u := ids(2)
	messages := []models.Message{
		msg(u[0], &u[1]),
		msg(u[1], &u[0]),
	}

	tree := BuildReplyTree(messages, MaxReplyDepth)
	require.Len(t, tree, 2)
	seen := map[uuid.UUID]bool{}
	for _, n := range tree {
		seen[n.Message.ID] = true
		require.Empty(t, n.Children)
	}
	require.True(t, seen[u[0]])
	require.True(t, seen[u[1]])
}

func TestBuildReplyTreeSelfParent(t *testing.T) {
	id := uuid.New()
	messages := []models.Message{msg(id, &id)}

	tree := BuildReplyTree(messages, MaxReplyDepth)
	require.Len(t, tree, 1)
	require.Equal(t, id, tree[0].Message.ID)
	require.Empty(t, tree[0].Children)
}

func TestBuildReplyTreeEmpty(t *testing.T) {
	require.Empty(t, BuildReplyTree(nil, MaxReplyDepth))
}
