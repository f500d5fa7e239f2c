package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread categories (fixed enumeration).
const (
	CategoryInstallation     = "installation"
	CategoryCommissioning    = "commissioning"
	CategoryTroubleshooting  = "troubleshooting"
	CategorySpecConsultation = "spec_consultation"
)

// Thread statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryInstallation, CategoryCommissioning, CategoryTroubleshooting, CategorySpecConsultation:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusClosed
}

type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FullName  *string   `json:"full_name" db:"full_name"`
	AvatarURL *string   `json:"avatar_url" db:"avatar_url"`
}

type Thread struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Category  string    `json:"category" db:"category"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
}

// Attachment types.
const (
	AttachmentImage = "image"
	AttachmentVoice = "voice"
)

type Attachment struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	URL      string  `json:"url"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration,omitempty"` // seconds, voice only
}

// Rect is a selection bounding box in rendered-bitmap pixel coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Citation references a page/passage of an uploaded manual. Stored as a
// first-class jsonb list on the message row; the legacy string-embedded
// form is still decoded on read (see internal/forum citations codec).
type Citation struct {
	ManualID       string  `json:"manual_id"`
	ManualTitle    string  `json:"manual_title"`
	ModelName      *string `json:"model_name"`
	ManualType     *string `json:"manual_type"`
	PageNumber     int     `json:"page_number"`
	SelectedText   string  `json:"selected_text"`
	HighlightImage *string `json:"highlight_image"` // base64 PNG
	HighlightRect  *Rect   `json:"highlight_rect"`
	FileURL        string  `json:"file_url"`
}

type Message struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	ThreadID    uuid.UUID    `json:"thread_id" db:"thread_id"`
	Content     string       `json:"content" db:"content"`
	SenderID    uuid.UUID    `json:"sender_id" db:"sender_id"`
	ParentID    *uuid.UUID   `json:"parent_id,omitempty" db:"parent_id"`
	Attachments []Attachment `json:"attachments" db:"attachments"`
	Citations   []Citation   `json:"citations" db:"citations"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type KnowledgeEntry struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ThreadID       uuid.UUID `json:"thread_id" db:"thread_id"`
	Title          string    `json:"title" db:"title"`
	SummaryContent string    `json:"summary_content" db:"summary_content"`
	Tags           []string  `json:"tags" db:"tags"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
