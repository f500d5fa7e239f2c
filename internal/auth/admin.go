package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/cache"
)

const adminCacheTTL = 5 * time.Minute

// AdminChecker resolves whether a user has an admin_users row. Results are
// cached so the role is looked up once per session window, not per
// component.
type AdminChecker struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewAdminChecker(db *pgxpool.Pool, c *cache.Cache) *AdminChecker {
	return &AdminChecker{db: db, cache: c}
}

func (a *AdminChecker) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := "admin:" + userID.String()

	if a.cache != nil {
		var cached bool
		if err := a.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var found uuid.UUID
	err := a.db.QueryRow(ctx, "SELECT user_id FROM admin_users WHERE user_id = $1", userID).Scan(&found)
	isAdmin := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("admin lookup: %w", err)
	}

	if a.cache != nil {
		_ = a.cache.Set(ctx, key, isAdmin, adminCacheTTL)
	}
	return isAdmin, nil
}
