package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/forum"
	"github.com/ecodanforum/backend/internal/knowledge"
	"github.com/ecodanforum/backend/internal/models"
	"github.com/ecodanforum/backend/internal/queue"
)

type ThreadHandler struct {
	svc      *forum.Service
	reloader *forum.Reloader
	queue    *queue.Client
}

func NewThreadHandler(svc *forum.Service, reloader *forum.Reloader, q *queue.Client) *ThreadHandler {
	return &ThreadHandler{svc: svc, reloader: reloader, queue: q}
}

// List serves the full denormalized snapshot.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reloader.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load threads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"threads":           snap.Threads,
		"profiles":          snap.Profiles,
		"messages":          snap.Messages,
		"knowledge_entries": snap.KnowledgeEntries,
	})
}

func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	var body struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		MessageBody string `json:"messageBody"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thread, err := h.svc.CreateThread(r.Context(), session.UserID, forum.CreateThreadRequest{
		Title:       body.Title,
		Category:    body.Category,
		MessageBody: body.MessageBody,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.reloader.Invalidate()
	writeJSON(w, http.StatusCreated, map[string]interface{}{"thread": thread})
}

// UpdateStatus toggles open/closed. The open->closed transition queues the
// knowledge summarizer and the resolve notification.
func (h *ThreadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	threadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid thread ID")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prev, err := h.svc.SetThreadStatus(r.Context(), threadID, body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.reloader.Invalidate()

	if prev.Status == models.StatusOpen && body.Status == models.StatusClosed {
		h.onThreadClosed(r, threadID, session.UserID)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *ThreadHandler) onThreadClosed(r *http.Request, threadID, actorID uuid.UUID) {
	view, names, err := threadForSummary(r, h.svc, threadID)
	if err != nil {
		slog.Error("thread close follow-up skipped", "thread_id", threadID, "error", err)
		return
	}

	if err := h.queue.EnqueueThreadSummarize(queue.ThreadSummarizePayload{
		ThreadID:      threadID,
		ThreadTitle:   view.Title,
		ThreadContent: view.Body,
		Messages:      replyMessages(view, names),
		Tags:          []string{view.Category},
	}); err != nil {
		slog.Error("enqueue summarize failed", "thread_id", threadID, "error", err)
	}

	if err := h.queue.EnqueueNotifyDispatch(queue.NotifyDispatchPayload{
		Event:       queue.EventResolve,
		ThreadID:    threadID,
		ThreadTitle: view.Title,
		ActorID:     actorID,
	}); err != nil {
		slog.Error("enqueue resolve notification failed", "thread_id", threadID, "error", err)
	}
}

// threadForSummary loads the thread view along with a sender display-name
// index for attributing replies.
func threadForSummary(r *http.Request, svc *forum.Service, threadID uuid.UUID) (*forum.ThreadView, map[uuid.UUID]string, error) {
	snap, err := svc.LoadSnapshot(r.Context())
	if err != nil {
		return nil, nil, err
	}

	names := make(map[uuid.UUID]string, len(snap.Profiles))
	for _, p := range snap.Profiles {
		names[p.ID] = displayName(&p)
	}

	for i := range snap.Threads {
		if snap.Threads[i].ID == threadID {
			return &snap.Threads[i], names, nil
		}
	}
	return nil, nil, errThreadNotFound
}

func replyMessages(view *forum.ThreadView, names map[uuid.UUID]string) []knowledge.ReplyMessage {
	if len(view.Messages) < 2 {
		return nil
	}
	out := make([]knowledge.ReplyMessage, 0, len(view.Messages)-1)
	for _, m := range view.Messages[1:] {
		author := names[m.SenderID]
		if author == "" {
			author = "Unknown"
		}
		out = append(out, knowledge.ReplyMessage{Author: author, Content: m.Content})
	}
	return out
}

func displayName(p *models.Profile) string {
	if p != nil && p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return "Unknown"
}
