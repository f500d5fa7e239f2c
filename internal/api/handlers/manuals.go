package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/manuals"
)

type ManualHandler struct {
	svc *manuals.Service
}

func NewManualHandler(svc *manuals.Service) *ManualHandler {
	return &ManualHandler{svc: svc}
}

func (h *ManualHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list manuals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"manuals": list, "count": len(list)})
}

func (h *ManualHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	manual, err := h.svc.Upload(r.Context(), manuals.UploadRequest{
		Title:       title,
		ModelName:   optionalForm(r, "model_name"),
		ManualType:  optionalForm(r, "manual_type"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
		UploadedBy:  session.UserID,
	})
	if err != nil {
		if errors.Is(err, manuals.ErrNotPDF) || errors.Is(err, manuals.ErrBadManualType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "manual upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":         true,
		"manual":          manual,
		"path":            manual.StoragePath,
		"url":             manual.FileURL,
		"file_size_bytes": manual.FileSizeBytes,
	})
}

func (h *ManualHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid manual ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, manuals.ErrNotFound) {
			writeError(w, http.StatusNotFound, "manual not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "manual delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func optionalForm(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}
