package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDispatchesForMessageWithoutMentions(t *testing.T) {
	threadID := uuid.New()
	actor := uuid.New()

	out := DispatchesForMessage(threadID, "Flow temp drops", actor, nil)
	require.Len(t, out, 1)
	require.Equal(t, EventReply, out[0].Event)
	require.Equal(t, threadID, out[0].ThreadID)
	require.Equal(t, actor, out[0].ActorID)
	require.Empty(t, out[0].Mentions)
}

func TestDispatchesForMessageAddsMentionEvent(t *testing.T) {
	threadID := uuid.New()
	actor := uuid.New()

	out := DispatchesForMessage(threadID, "Flow temp drops", actor, []string{"Tanaka", "Suzuki"})
	require.Len(t, out, 2)
	require.Equal(t, EventReply, out[0].Event)
	require.Empty(t, out[0].Mentions)
	require.Equal(t, EventMention, out[1].Event)
	require.Equal(t, []string{"Tanaka", "Suzuki"}, out[1].Mentions)
	require.Equal(t, "Flow temp drops", out[1].ThreadTitle)
}
