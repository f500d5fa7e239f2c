package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Get returns the user's settings, falling back to defaults when the row
// has never been saved.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	var ns models.NotificationSettings
	err := s.db.QueryRow(ctx,
		`SELECT user_id, email_on_reply, email_on_mention, email_on_resolve, notification_email
		 FROM notification_settings WHERE user_id = $1`,
		userID,
	).Scan(&ns.UserID, &ns.EmailOnReply, &ns.EmailOnMention, &ns.EmailOnResolve, &ns.NotificationEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		def := models.DefaultNotificationSettings(userID)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return &ns, nil
}

// Save upserts the one settings row per user.
func (s *Service) Save(ctx context.Context, ns models.NotificationSettings) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_settings (user_id, email_on_reply, email_on_mention, email_on_resolve, notification_email)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   email_on_reply = EXCLUDED.email_on_reply,
		   email_on_mention = EXCLUDED.email_on_mention,
		   email_on_resolve = EXCLUDED.email_on_resolve,
		   notification_email = EXCLUDED.notification_email`,
		ns.UserID, ns.EmailOnReply, ns.EmailOnMention, ns.EmailOnResolve, ns.NotificationEmail,
	)
	if err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}

// Recipient is a user who opted in to the triggering event.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Recipients resolves who should be notified for an event against stored
// opt-ins. The actor never notifies themself. Mentioned users are matched
// by display name exactly as stored.
func (s *Service) Recipients(ctx context.Context, event string, threadOwner, actor uuid.UUID, mentions []string) ([]Recipient, error) {
	var out []Recipient
	seen := map[uuid.UUID]bool{actor: true}

	appendOwner := func(flagColumn string) error {
		var r Recipient
		err := s.db.QueryRow(ctx,
			fmt.Sprintf(`SELECT user_id, COALESCE(notification_email, '')
			 FROM notification_settings WHERE user_id = $1 AND %s`, flagColumn),
			threadOwner,
		).Scan(&r.UserID, &r.Email)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve owner recipient: %w", err)
		}
		if !seen[r.UserID] {
			seen[r.UserID] = true
			out = append(out, r)
		}
		return nil
	}

	switch event {
	case "reply":
		// Reply opt-in defaults to on, so an absent row counts as opted in.
		var r Recipient
		err := s.db.QueryRow(ctx,
			`SELECT p.id, COALESCE(ns.notification_email, '')
			 FROM profiles p
			 LEFT JOIN notification_settings ns ON ns.user_id = p.id
			 WHERE p.id = $1 AND COALESCE(ns.email_on_reply, true)`,
			threadOwner,
		).Scan(&r.UserID, &r.Email)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resolve reply recipient: %w", err)
		}
		if err == nil && !seen[r.UserID] {
			seen[r.UserID] = true
			out = append(out, r)
		}
	case "resolve":
		// Resolve opt-in defaults to off; only an explicit row counts.
		if err := appendOwner("email_on_resolve"); err != nil {
			return nil, err
		}
	}

	if len(mentions) > 0 {
		rows, err := s.db.Query(ctx,
			`SELECT p.id, COALESCE(ns.notification_email, '')
			 FROM profiles p
			 LEFT JOIN notification_settings ns ON ns.user_id = p.id
			 WHERE p.full_name = ANY($1) AND COALESCE(ns.email_on_mention, true)`,
			mentions,
		)
		if err != nil {
			return nil, fmt.Errorf("resolve mention recipients: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r Recipient
			if err := rows.Scan(&r.UserID, &r.Email); err != nil {
				return nil, fmt.Errorf("scan mention recipient: %w", err)
			}
			if !seen[r.UserID] {
				seen[r.UserID] = true
				out = append(out, r)
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return out, nil
}
