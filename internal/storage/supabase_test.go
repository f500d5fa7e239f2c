package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUploadSendsAuthAndBody(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "service-key")
	err := s.Upload(context.Background(), "manuals", "user/file.pdf", strings.NewReader("pdf bytes"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "/storage/v1/object/manuals/user/file.pdf", gotPath)
	require.Equal(t, "Bearer service-key", gotAuth)
	require.Equal(t, "application/pdf", gotType)
	require.Equal(t, "pdf bytes", gotBody)
}

func TestUploadPropagatesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"denied"}`))
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k")
	err := s.Upload(context.Background(), "b", "p", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestCreateSignedURL(t *testing.T) {
	var gotExpires int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotExpires = body["expiresIn"]
		_ = json.NewEncoder(w).Encode(map[string]string{"signedURL": "/object/sign/manuals/p?token=abc"})
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k")
	url, err := s.CreateSignedURL(context.Background(), "manuals", "p", time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(3600), gotExpires)
	require.True(t, strings.HasSuffix(url, "/storage/v1/object/sign/manuals/p?token=abc"))
}

func TestGetPublicURL(t *testing.T) {
	s := NewSupabaseStorage("https://proj.supabase.co/", "k")
	require.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/attachments/u/a.png",
		s.GetPublicURL("attachments", "u/a.png"))
}
