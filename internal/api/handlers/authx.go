package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecodanforum/backend/internal/auth"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Signout expires every sb-* auth cookie the client sent.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, "sb-") {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AdminCheck reports the capability resolved once during authentication.
func (h *AuthHandler) AdminCheck(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": session != nil && session.IsAdmin})
}
