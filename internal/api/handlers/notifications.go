package handlers

import (
	"net/http"

	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/models"
	"github.com/ecodanforum/backend/internal/notifications"
)

type NotificationHandler struct {
	svc *notifications.Service
}

func NewNotificationHandler(svc *notifications.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	settings, err := h.svc.Get(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

func (h *NotificationHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	var body struct {
		EmailOnReply      bool    `json:"email_on_reply"`
		EmailOnMention    bool    `json:"email_on_mention"`
		EmailOnResolve    bool    `json:"email_on_resolve"`
		NotificationEmail *string `json:"notification_email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.svc.Save(r.Context(), models.NotificationSettings{
		UserID:            session.UserID,
		EmailOnReply:      body.EmailOnReply,
		EmailOnMention:    body.EmailOnMention,
		EmailOnResolve:    body.EmailOnResolve,
		NotificationEmail: body.NotificationEmail,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
