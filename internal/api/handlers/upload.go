package handlers

import (
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ecodanforum/backend/internal/auth"
	"github.com/ecodanforum/backend/internal/storage"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// UploadHandler stores composer attachments (images, voice blobs) and hands
// back the persistent URL.
type UploadHandler struct {
	store  storage.Storage
	bucket string
}

func NewUploadHandler(store storage.Storage, bucket string) *UploadHandler {
	return &UploadHandler{store: store, bucket: bucket}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	name := unsafeNameChars.ReplaceAllString(strings.ReplaceAll(header.Filename, " ", "_"), "_")
	if name == "" {
		name = "attachment"
	}
	path := fmt.Sprintf("%s/%d-%04d-%s", session.UserID, time.Now().UnixMilli(), rand.Intn(10000), name)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// A bucket override is accepted but only for the attachments bucket;
	// manual uploads go through the admin endpoint.
	if b := r.FormValue("bucket"); b != "" && b != h.bucket {
		writeError(w, http.StatusBadRequest, "unknown bucket")
		return
	}

	if err := h.store.Upload(r.Context(), h.bucket, path, file, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"url":     h.store.GetPublicURL(h.bucket, path),
		"path":    path,
	})
}
