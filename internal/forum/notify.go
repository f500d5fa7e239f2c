package forum

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// changeChannel is the redis pub/sub channel carrying row-change events.
const changeChannel = "forum:changes"

// ChangeEvent announces that rows in a table changed. Subscribers reload the
// whole snapshot rather than merging deltas.
type ChangeEvent struct {
	Table    string    `json:"table"`
	ThreadID uuid.UUID `json:"thread_id,omitempty"`
}

// Notifier fans row-change events out over redis pub/sub so every API
// instance refreshes its snapshot.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish is best-effort: a dropped event only delays the next reload, it
// never loses data.
func (n *Notifier) Publish(ctx context.Context, ev ChangeEvent) {
	if n == nil || n.rdb == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, changeChannel, data).Err(); err != nil {
		slog.Warn("change event publish failed", "table", ev.Table, "error", err)
	}
}

// Subscribe invokes fn for every change event until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, fn func(ChangeEvent)) {
	if n == nil || n.rdb == nil {
		return
	}
	sub := n.rdb.Subscribe(ctx, changeChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("bad change event payload", "error", err)
					continue
				}
				fn(ev)
			}
		}
	}()
}
