package models

import "github.com/google/uuid"

// NotificationSettings is one row per user, upserted on save.
// Defaults: reply=true, mention=true, resolve=false.
type NotificationSettings struct {
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	EmailOnReply      bool      `json:"email_on_reply" db:"email_on_reply"`
	EmailOnMention    bool      `json:"email_on_mention" db:"email_on_mention"`
	EmailOnResolve    bool      `json:"email_on_resolve" db:"email_on_resolve"`
	NotificationEmail *string   `json:"notification_email" db:"notification_email"`
}

func DefaultNotificationSettings(userID uuid.UUID) NotificationSettings {
	return NotificationSettings{
		UserID:         userID,
		EmailOnReply:   true,
		EmailOnMention: true,
		EmailOnResolve: false,
	}
}
