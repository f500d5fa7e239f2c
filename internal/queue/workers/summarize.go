package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ecodanforum/backend/internal/knowledge"
	"github.com/ecodanforum/backend/internal/queue"
)

type SummarizeWorker struct {
	knowledge *knowledge.Service
}

func NewSummarizeWorker(knowledgeSvc *knowledge.Service) *SummarizeWorker {
	return &SummarizeWorker{knowledge: knowledgeSvc}
}

func (w *SummarizeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ThreadSummarizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("summarizing resolved thread", "thread_id", payload.ThreadID)

	result, err := w.knowledge.Summarize(ctx, knowledge.SummarizeRequest{
		ThreadID:      payload.ThreadID,
		ThreadTitle:   payload.ThreadTitle,
		ThreadContent: payload.ThreadContent,
		Messages:      payload.Messages,
		Tags:          payload.Tags,
	})
	if err != nil {
		return fmt.Errorf("summarize thread %s: %w", payload.ThreadID, err)
	}

	if !result.Created {
		slog.Info("thread already summarized", "thread_id", payload.ThreadID, "entry_id", result.ExistingID)
		return nil
	}

	slog.Info("knowledge entry created", "thread_id", payload.ThreadID, "entry_id", result.Entry.ID)
	return nil
}
