package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/forum"
	"github.com/ecodanforum/backend/internal/knowledge"
)

type SummarizeHandler struct {
	forum     *forum.Service
	knowledge *knowledge.Service
}

func NewSummarizeHandler(forumSvc *forum.Service, knowledgeSvc *knowledge.Service) *SummarizeHandler {
	return &SummarizeHandler{forum: forumSvc, knowledge: knowledgeSvc}
}

// Summarize runs the knowledge summarizer synchronously. The client may send
// the thread content along; anything missing is loaded server-side. A thread
// that was already summarized is a soft success, not a conflict error.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ThreadID      uuid.UUID                `json:"threadId"`
		ThreadTitle   string                   `json:"threadTitle"`
		ThreadContent string                   `json:"threadContent"`
		Messages      []knowledge.ReplyMessage `json:"messages"`
		Tags          []string                 `json:"tags"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ThreadID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "threadId is required")
		return
	}

	req := knowledge.SummarizeRequest{
		ThreadID:      body.ThreadID,
		ThreadTitle:   body.ThreadTitle,
		ThreadContent: body.ThreadContent,
		Messages:      body.Messages,
		Tags:          body.Tags,
	}
	if req.ThreadTitle == "" || req.ThreadContent == "" {
		view, names, err := threadForSummary(r, h.forum, body.ThreadID)
		if err != nil {
			if errors.Is(err, errThreadNotFound) {
				writeError(w, http.StatusNotFound, "thread not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load thread")
			return
		}
		req.ThreadTitle = view.Title
		req.ThreadContent = view.Body
		if len(req.Messages) == 0 {
			req.Messages = replyMessages(view, names)
		}
		if len(req.Tags) == 0 {
			req.Tags = []string{view.Category}
		}
	}

	result, err := h.knowledge.Summarize(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summarization failed")
		return
	}

	if !result.Created {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Already summarized",
			"id":      result.ExistingID,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "entry": result.Entry})
}
