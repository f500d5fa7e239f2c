package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/notifications"
	"github.com/ecodanforum/backend/internal/queue"
)

type NotifyWorker struct {
	db            *pgxpool.Pool
	notifications *notifications.Service
	dispatcher    *notifications.Dispatcher
}

func NewNotifyWorker(db *pgxpool.Pool, notifySvc *notifications.Service, dispatcher *notifications.Dispatcher) *NotifyWorker {
	return &NotifyWorker{db: db, notifications: notifySvc, dispatcher: dispatcher}
}

func (w *NotifyWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.NotifyDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var owner uuid.UUID
	err := w.db.QueryRow(ctx, `SELECT created_by FROM threads WHERE id = $1`, payload.ThreadID).Scan(&owner)
	if err != nil {
		return fmt.Errorf("load thread owner: %w", err)
	}

	recipients, err := w.notifications.Recipients(ctx, payload.Event, owner, payload.ActorID, payload.Mentions)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	slog.Info("dispatching notification", "event", payload.Event, "thread_id", payload.ThreadID, "recipients", len(recipients))

	return w.dispatcher.Deliver(ctx, notifications.Delivery{
		Event:       payload.Event,
		ThreadID:    payload.ThreadID.String(),
		ThreadTitle: payload.ThreadTitle,
		Recipients:  recipients,
	})
}
