package queue

import (
	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/knowledge"
)

const (
	TypeThreadSummarize = "thread:summarize"
	TypeNotifyDispatch  = "notify:dispatch"
)

// ThreadSummarizePayload carries everything the worker needs to summarize a
// resolved thread without re-reading session state.
type ThreadSummarizePayload struct {
	ThreadID      uuid.UUID                `json:"thread_id"`
	ThreadTitle   string                   `json:"thread_title"`
	ThreadContent string                   `json:"thread_content"`
	Messages      []knowledge.ReplyMessage `json:"messages"`
	Tags          []string                 `json:"tags"`
}

// Notification events.
const (
	EventReply   = "reply"
	EventMention = "mention"
	EventResolve = "resolve"
)

type NotifyDispatchPayload struct {
	Event       string    `json:"event"`
	ThreadID    uuid.UUID `json:"thread_id"`
	ThreadTitle string    `json:"thread_title"`
	ActorID     uuid.UUID `json:"actor_id"`
	// Mentions holds display names parsed from the triggering message.
	Mentions []string `json:"mentions,omitempty"`
}

// DispatchesForMessage expands one new reply into its notification events: a
// reply event for the thread owner and, when the content mentions anyone, a
// separate mention event carrying the names.
func DispatchesForMessage(threadID uuid.UUID, threadTitle string, actor uuid.UUID, mentions []string) []NotifyDispatchPayload {
	out := []NotifyDispatchPayload{{
		Event:       EventReply,
		ThreadID:    threadID,
		ThreadTitle: threadTitle,
		ActorID:     actor,
	}}
	if len(mentions) > 0 {
		out = append(out, NotifyDispatchPayload{
			Event:       EventMention,
			ThreadID:    threadID,
			ThreadTitle: threadTitle,
			ActorID:     actor,
			Mentions:    mentions,
		})
	}
	return out
}
