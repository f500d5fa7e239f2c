package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/models"
)

// Service owns thread and message persistence. Every write publishes a
// change event so the snapshot reloader picks it up.
type Service struct {
	db            *pgxpool.Pool
	notifier      *Notifier
	maxReplyDepth int
}

func NewService(db *pgxpool.Pool, notifier *Notifier, maxReplyDepth int) *Service {
	return &Service{db: db, notifier: notifier, maxReplyDepth: maxReplyDepth}
}

// LoadSnapshot fetches every table the forum view needs and joins them into
// one denormalized snapshot.
func (s *Service) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	threads, err := s.listThreads(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.listProfiles(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.listMessages(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.listKnowledgeEntries(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(threads, profiles, messages, entries, s.maxReplyDepth), nil
}

type CreateThreadRequest struct {
	Title       string
	Category    string
	MessageBody string
}

// CreateThread inserts the thread and its first (body) message. A failed
// body insert does not fail the call: the thread stands with an empty body.
func (s *Service) CreateThread(ctx context.Context, userID uuid.UUID, req CreateThreadRequest) (*models.Thread, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !models.ValidCategory(req.Category) {
		return nil, fmt.Errorf("invalid category %q", req.Category)
	}

	var t models.Thread
	err := s.db.QueryRow(ctx,
		`INSERT INTO threads (title, category, status, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, title, category, status, created_at, created_by`,
		title, req.Category, models.StatusOpen, userID,
	).Scan(&t.ID, &t.Title, &t.Category, &t.Status, &t.CreatedAt, &t.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	if body := strings.TrimSpace(req.MessageBody); body != "" {
		if err := s.insertMessage(ctx, t.ID, userID, body, nil, nil, nil); err != nil {
			slog.Error("first message insert failed, thread kept", "thread_id", t.ID, "error", err)
		}
	}

	s.notifier.Publish(ctx, ChangeEvent{Table: "threads", ThreadID: t.ID})
	return &t, nil
}

type AddMessageRequest struct {
	ThreadID    uuid.UUID
	Content     string
	Attachments []models.Attachment
	Citations   []models.Citation
	ParentID    *uuid.UUID
}

// AddMessage inserts a reply. parent_id, when present, must reference a
// message in the same thread.
func (s *Service) AddMessage(ctx context.Context, userID uuid.UUID, req AddMessageRequest) error {
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Attachments) == 0 {
		return fmt.Errorf("content is required")
	}

	if req.ParentID != nil {
		var parentThread uuid.UUID
		err := s.db.QueryRow(ctx,
			"SELECT thread_id FROM messages WHERE id = $1", *req.ParentID,
		).Scan(&parentThread)
		if err != nil {
			return fmt.Errorf("resolve parent message: %w", err)
		}
		if parentThread != req.ThreadID {
			return fmt.Errorf("parent message belongs to a different thread")
		}
	}

	if err := s.insertMessage(ctx, req.ThreadID, userID, content, req.Attachments, req.Citations, req.ParentID); err != nil {
		return err
	}

	s.notifier.Publish(ctx, ChangeEvent{Table: "messages", ThreadID: req.ThreadID})
	return nil
}

func (s *Service) insertMessage(ctx context.Context, threadID, senderID uuid.UUID, content string, attachments []models.Attachment, citations []models.Citation, parentID *uuid.UUID) error {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	if citations == nil {
		citations = []models.Citation{}
	}
	attJSON, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	citJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO messages (thread_id, content, sender_id, parent_id, attachments, citations)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		threadID, content, senderID, parentID, attJSON, citJSON,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// SetThreadStatus updates the status and returns the thread as it was
// before the update, so callers can act on the open->closed transition.
func (s *Service) SetThreadStatus(ctx context.Context, threadID uuid.UUID, status string) (*models.Thread, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("status must be %q or %q", models.StatusOpen, models.StatusClosed)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	var prev models.Thread
	err = tx.QueryRow(ctx,
		`SELECT id, title, category, status, created_at, created_by
		 FROM threads WHERE id = $1 FOR UPDATE`,
		threadID,
	).Scan(&prev.ID, &prev.Title, &prev.Category, &prev.Status, &prev.CreatedAt, &prev.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	if _, err := tx.Exec(ctx, "UPDATE threads SET status = $1 WHERE id = $2", status, threadID); err != nil {
		return nil, fmt.Errorf("update thread status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	s.notifier.Publish(ctx, ChangeEvent{Table: "threads", ThreadID: threadID})
	return &prev, nil
}

// GetThreadView loads one thread denormalized, for the summarizer payload.
func (s *Service) GetThreadView(ctx context.Context, threadID uuid.UUID) (*ThreadView, error) {
	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Threads {
		if snap.Threads[i].ID == threadID {
			return &snap.Threads[i], nil
		}
	}
	return nil, fmt.Errorf("thread %s not found", threadID)
}

// EnsureProfile creates a profile row on first sign-in if absent.
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(ctx,
		"SELECT id, full_name, avatar_url FROM profiles WHERE id = $1", userID,
	).Scan(&p.ID, &p.FullName, &p.AvatarURL)
	if err == nil {
		return &p, nil
	}

	displayName := email
	if at := strings.Index(email, "@"); at > 0 {
		displayName = email[:at]
	}
	if displayName == "" {
		displayName = "User"
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO profiles (id, full_name, avatar_url) VALUES ($1, $2, NULL)
		 ON CONFLICT (id) DO UPDATE SET full_name = profiles.full_name
		 RETURNING id, full_name, avatar_url`,
		userID, displayName,
	).Scan(&p.ID, &p.FullName, &p.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return &p, nil
}

func (s *Service) listThreads(ctx context.Context) ([]models.Thread, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, category, status, created_at, created_by
		 FROM threads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &t.Status, &t.CreatedAt, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (s *Service) listProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.Query(ctx, "SELECT id, full_name, avatar_url FROM profiles")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Service) listMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, thread_id, content, sender_id, parent_id, attachments, citations, created_at
		 FROM messages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var attJSON, citJSON []byte
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Content, &m.SenderID, &m.ParentID, &attJSON, &citJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(attJSON, &m.Attachments); err != nil {
			slog.Warn("bad attachments json, dropping", "message_id", m.ID, "error", err)
			m.Attachments = []models.Attachment{}
		}
		if err := json.Unmarshal(citJSON, &m.Citations); err != nil {
			slog.Warn("bad citations json, dropping", "message_id", m.ID, "error", err)
			m.Citations = []models.Citation{}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Service) listKnowledgeEntries(ctx context.Context) ([]models.KnowledgeEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, thread_id, title, summary_content, tags, created_at
		 FROM knowledge_entries`)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []models.KnowledgeEntry
	for rows.Next() {
		var e models.KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.ThreadID, &e.Title, &e.SummaryContent, &e.Tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
