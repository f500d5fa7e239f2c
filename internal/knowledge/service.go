package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/llm"
	"github.com/ecodanforum/backend/internal/models"
)

const systemPrompt = `You are a technical support assistant for a community forum about heat pump systems.
When a thread is marked as resolved, summarize the issue and solution clearly and concisely for future reference in the knowledge base.
Respond in English only. Output valid JSON in the following format:
{
  "summary": "A concise summary (2-4 sentences) describing the problem and how it was resolved."
}`

// ReplyMessage is one reply in the summarization payload.
type ReplyMessage struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type SummarizeRequest struct {
	ThreadID      uuid.UUID
	ThreadTitle   string
	ThreadContent string
	Messages      []ReplyMessage
	Tags          []string
}

// Result distinguishes a fresh entry from the idempotent already-summarized
// case, which is a soft success rather than an error.
type Result struct {
	Created    bool
	Entry      *models.KnowledgeEntry
	ExistingID uuid.UUID
}

type Service struct {
	db      *pgxpool.Pool
	gateway llm.Gateway
	model   string
}

func NewService(db *pgxpool.Pool, gw llm.Gateway, model string) *Service {
	return &Service{db: db, gateway: gw, model: model}
}

// Summarize generates and stores the knowledge entry for a resolved thread.
// At most one entry exists per thread: a pre-existing entry short-circuits
// without a second LLM call.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (*Result, error) {
	var existingID uuid.UUID
	err := s.db.QueryRow(ctx,
		"SELECT id FROM knowledge_entries WHERE thread_id = $1", req.ThreadID,
	).Scan(&existingID)
	if err == nil {
		return &Result{Created: false, ExistingID: existingID}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing entry: %w", err)
	}

	summary, err := s.generateSummary(ctx, req)
	if err != nil {
		return nil, err
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	var entry models.KnowledgeEntry
	err = s.db.QueryRow(ctx,
		`INSERT INTO knowledge_entries (thread_id, title, summary_content, tags)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (thread_id) DO NOTHING
		 RETURNING id, thread_id, title, summary_content, tags, created_at`,
		req.ThreadID, req.ThreadTitle, summary, tags,
	).Scan(&entry.ID, &entry.ThreadID, &entry.Title, &entry.SummaryContent, &entry.Tags, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent close won the insert race; report theirs.
		if scanErr := s.db.QueryRow(ctx,
			"SELECT id FROM knowledge_entries WHERE thread_id = $1", req.ThreadID,
		).Scan(&existingID); scanErr == nil {
			return &Result{Created: false, ExistingID: existingID}, nil
		}
		return nil, fmt.Errorf("insert knowledge entry: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert knowledge entry: %w", err)
	}

	return &Result{Created: true, Entry: &entry}, nil
}

func (s *Service) generateSummary(ctx context.Context, req SummarizeRequest) (string, error) {
	if s.gateway == nil || !s.gateway.Configured() {
		return "", fmt.Errorf("summarization service not configured")
	}

	parts := []string{
		fmt.Sprintf("[Thread Title] %s", req.ThreadTitle),
		fmt.Sprintf("[Original Post]\n%s", req.ThreadContent),
	}
	if len(req.Messages) > 0 {
		replies := make([]string, 0, len(req.Messages))
		for _, m := range req.Messages {
			replies = append(replies, fmt.Sprintf("%s: %s", m.Author, m.Content))
		}
		parts = append(parts, "[Replies]\n"+strings.Join(replies, "\n\n"))
	}

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Please summarize the following resolved support thread:\n\n" + strings.Join(parts, "\n\n")},
		},
		MaxTokens:  500,
		JSONOutput: true,
	})
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil || parsed.Summary == "" {
		return "No summary could be generated.", nil
	}
	return parsed.Summary, nil
}
