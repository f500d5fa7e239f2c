package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/forum"
	"github.com/ecodanforum/backend/internal/models"
	"github.com/ecodanforum/backend/internal/queue"
)

type MessageHandler struct {
	svc      *forum.Service
	reloader *forum.Reloader
	queue    *queue.Client
}

func NewMessageHandler(svc *forum.Service, reloader *forum.Reloader, q *queue.Client) *MessageHandler {
	return &MessageHandler{svc: svc, reloader: reloader, queue: q}
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	var body struct {
		ThreadID    uuid.UUID           `json:"threadId"`
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
		Citations   []models.Citation   `json:"citations"`
		ParentID    *uuid.UUID          `json:"parentId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ThreadID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "threadId is required")
		return
	}

	err := h.svc.AddMessage(r.Context(), session.UserID, forum.AddMessageRequest{
		ThreadID:    body.ThreadID,
		Content:     body.Content,
		Attachments: body.Attachments,
		Citations:   body.Citations,
		ParentID:    body.ParentID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.reloader.Invalidate()

	view, err := h.svc.GetThreadView(r.Context(), body.ThreadID)
	if err == nil {
		dispatches := queue.DispatchesForMessage(body.ThreadID, view.Title, session.UserID, forum.ParseMentions(body.Content))
		for _, payload := range dispatches {
			if err := h.queue.EnqueueNotifyDispatch(payload); err != nil {
				slog.Error("enqueue notification failed", "event", payload.Event, "thread_id", body.ThreadID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}
