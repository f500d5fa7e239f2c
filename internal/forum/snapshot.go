package forum

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/models"
)

// ThreadView is a thread denormalized for display: profile joined, messages
// ascending, body taken from the earliest message, reply tree built from the
// rest.
type ThreadView struct {
	models.Thread
	Profile        *models.Profile        `json:"profile"`
	Messages       []models.Message       `json:"messages"`
	Body           string                 `json:"body"`
	Mentions       []string               `json:"mentions"`
	KnowledgeEntry *models.KnowledgeEntry `json:"knowledge_entry,omitempty"`
	Replies        []*ReplyNode           `json:"replies"`
}

// Snapshot is the full denormalized forum state, replaced wholesale on each
// reload.
type Snapshot struct {
	Threads          []ThreadView            `json:"threads"`
	Profiles         []models.Profile        `json:"profiles"`
	Messages         []models.Message        `json:"messages"`
	KnowledgeEntries []models.KnowledgeEntry `json:"knowledge_entries"`
	LoadedAt         time.Time               `json:"loaded_at"`
}

// BuildSnapshot joins raw rows into the display model. Threads are expected
// newest-first and messages ascending by creation time; both orders are
// preserved. maxDepth bounds reply nesting; zero or negative falls back to
// MaxReplyDepth.
func BuildSnapshot(threads []models.Thread, profiles []models.Profile, messages []models.Message, entries []models.KnowledgeEntry, maxDepth int) *Snapshot {
	profileByID := make(map[uuid.UUID]*models.Profile, len(profiles))
	for i := range profiles {
		profileByID[profiles[i].ID] = &profiles[i]
	}

	msgsByThread := make(map[uuid.UUID][]models.Message, len(threads))
	for _, m := range messages {
		// Content from older clients may still carry string-embedded
		// citations; fold them into the structured list.
		text, legacy := DecodeCitations(m.Content)
		m.Content = text
		m.Citations = append(m.Citations, legacy...)
		msgsByThread[m.ThreadID] = append(msgsByThread[m.ThreadID], m)
	}

	entryByThread := make(map[uuid.UUID]*models.KnowledgeEntry, len(entries))
	for i := range entries {
		entryByThread[entries[i].ThreadID] = &entries[i]
	}

	views := make([]ThreadView, 0, len(threads))
	for _, t := range threads {
		msgs := msgsByThread[t.ID]
		body := ""
		var replies []models.Message
		if len(msgs) > 0 {
			body = msgs[0].Content
			replies = msgs[1:]
		}
		views = append(views, ThreadView{
			Thread:         t,
			Profile:        profileByID[t.CreatedBy],
			Messages:       msgs,
			Body:           body,
			Mentions:       ParseMentions(body),
			KnowledgeEntry: entryByThread[t.ID],
			Replies:        BuildReplyTree(replies, maxDepth),
		})
	}

	return &Snapshot{
		Threads:          views,
		Profiles:         profiles,
		Messages:         messages,
		KnowledgeEntries: entries,
		LoadedAt:         time.Now(),
	}
}

// Filter selects threads by search query, ownership/mention filter, and
// category. filter is "all", "my", or "mentioned".
type Filter struct {
	Query       string
	Mode        string // all | my | mentioned
	UserID      uuid.UUID
	DisplayName string
	Category    string
}

func (s *Snapshot) Filter(f Filter) []ThreadView {
	var out []ThreadView
	for _, t := range s.Threads {
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			author := ""
			if t.Profile != nil && t.Profile.FullName != nil {
				author = *t.Profile.FullName
			}
			if !strings.Contains(strings.ToLower(t.Title), q) &&
				!strings.Contains(strings.ToLower(t.Body), q) &&
				!strings.Contains(strings.ToLower(author), q) {
				continue
			}
		}

		if f.Mode == "my" && t.CreatedBy != f.UserID {
			continue
		}
		if f.Mode == "mentioned" && !s.mentionsUser(t, f.DisplayName) {
			continue
		}

		if f.Category != "" && t.Category != f.Category {
			continue
		}

		out = append(out, t)
	}
	return out
}

// mentionsUser reports whether the thread body or any of its messages
// mentions name. Case-sensitive, as stored.
func (s *Snapshot) mentionsUser(t ThreadView, name string) bool {
	if name == "" {
		return false
	}
	for _, m := range t.Mentions {
		if m == name {
			return true
		}
	}
	for _, msg := range t.Messages {
		if ContainsMention(msg.Content, name) {
			return true
		}
	}
	return false
}
