package handlers

import (
	"net/http"
	"strconv"

	"github.com/ecodanforum/backend/internal/errorcodes"
)

type ErrorCodeHandler struct {
	svc *errorcodes.Service
}

func NewErrorCodeHandler(svc *errorcodes.Service) *ErrorCodeHandler {
	return &ErrorCodeHandler{svc: svc}
}

func (h *ErrorCodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	codes, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("unit"), limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"error_codes": codes, "count": len(codes)})
}
