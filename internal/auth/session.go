package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/models"
)

// Session carries the authenticated user through the request context. The
// admin role is resolved once when the session is built; handlers never poll
// for it separately.
type Session struct {
	UserID  uuid.UUID
	Email   string
	Profile *models.Profile
	IsAdmin bool
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
