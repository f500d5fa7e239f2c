package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/forum"
)

// Claims mirrors the Supabase access-token payload.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secret     []byte
	forumSvc   *forum.Service
	adminCheck *AdminChecker
}

func NewMiddleware(secret string, forumSvc *forum.Service, adminCheck *AdminChecker) *Middleware {
	return &Middleware{
		secret:     []byte(secret),
		forumSvc:   forumSvc,
		adminCheck: adminCheck,
	}
}

// Authenticate validates the Supabase session token (bearer header or sb-*
// auth cookie), ensures a profile exists, resolves the admin role once, and
// stores the whole session in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid user ID in token")
			return
		}

		ctx := r.Context()

		profile, err := m.forumSvc.EnsureProfile(ctx, userID, claims.Email)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "profile unavailable")
			return
		}

		isAdmin, err := m.adminCheck.IsAdmin(ctx, userID)
		if err != nil {
			// Role lookup failure degrades to non-admin rather than
			// blocking the request.
			isAdmin = false
		}

		sess := &Session{
			UserID:  userID,
			Email:   claims.Email,
			Profile: profile,
			IsAdmin: isAdmin,
		}
		next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
	})
}

// RequireAdmin guards admin-only routes; the role was resolved at
// authentication time.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}
		if !sess.IsAdmin {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Supabase browser sessions arrive as sb-<ref>-auth-token cookies.
	for _, c := range r.Cookies() {
		if strings.HasPrefix(c.Name, "sb-") && strings.Contains(c.Name, "auth-token") {
			return c.Value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
