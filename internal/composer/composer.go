package composer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ecodanforum/backend/internal/models"
)

const MaxImages = 4

var (
	ErrTooManyImages = errors.New("at most 4 images per message")
	ErrNothingToPost = errors.New("nothing to post")
	ErrPostInFlight  = errors.New("post already in flight")
)

// Uploader stores one attachment file and returns its persistent URL.
type Uploader interface {
	UploadAttachment(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

// Poster issues the single message-creation call once attachments resolve.
type Poster interface {
	CreateMessage(ctx context.Context, threadID uuid.UUID, content string, attachments []models.Attachment, parentID *uuid.UUID, citations []models.Citation) error
}

// LocalFile is a picked-but-not-yet-uploaded attachment. LocalURL is the
// ephemeral object URL used as a fallback when the upload fails.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
	LocalURL    string
	Duration    float64
}

// Composer is the message draft state machine. It is driven by a single
// caller at a time, matching the one-event-at-a-time UI it models.
type Composer struct {
	uploader Uploader
	poster   Poster

	text      string
	images    []LocalFile
	voice     *LocalFile
	citations []models.Citation
	posting   bool

	parentID    *uuid.UUID
	replyToName string
}

func New(uploader Uploader, poster Poster) *Composer {
	return &Composer{uploader: uploader, poster: poster}
}

func (c *Composer) SetText(text string) {
	c.text = text
}

func (c *Composer) Text() string {
	return c.text
}

// AttachImage rejects the fifth image rather than evicting an earlier one.
func (c *Composer) AttachImage(f LocalFile) error {
	if len(c.images) >= MaxImages {
		return ErrTooManyImages
	}
	c.images = append(c.images, f)
	return nil
}

func (c *Composer) RemoveImage(i int) {
	if i < 0 || i >= len(c.images) {
		return
	}
	c.images = append(c.images[:i], c.images[i+1:]...)
}

func (c *Composer) Images() []LocalFile {
	return c.images
}

// AttachVoice replaces any prior voice attachment; there is never more than
// one.
func (c *Composer) AttachVoice(f LocalFile) {
	c.voice = &f
}

func (c *Composer) ClearVoice() {
	c.voice = nil
}

func (c *Composer) Voice() *LocalFile {
	return c.voice
}

func (c *Composer) AddCitation(ct models.Citation) {
	c.citations = append(c.citations, ct)
}

// AcceptRecording copies the stopped recording into the voice slot. It does
// nothing once the recorder has been cleared.
func (c *Composer) AcceptRecording(r *Recorder) bool {
	blob, url, duration, ok := r.Result()
	if !ok {
		return false
	}
	c.voice = &LocalFile{
		Name:        "voice-message.webm",
		ContentType: "audio/webm",
		Data:        blob,
		LocalURL:    url,
		Duration:    duration,
	}
	return true
}

// SetReplyContext marks the draft as a nested reply to the named user.
func (c *Composer) SetReplyContext(parentID *uuid.UUID, replyToName string) {
	c.parentID = parentID
	c.replyToName = replyToName
}

// CanPost requires trimmed text, or at least one image, or a voice
// attachment.
func (c *Composer) CanPost() bool {
	if c.posting {
		return false
	}
	return strings.TrimSpace(c.text) != "" || len(c.images) > 0 || c.voice != nil
}

// Post uploads each attachment, then issues one message-creation call. A
// failed upload degrades that single attachment to its local URL instead of
// aborting the post. The draft resets once the call settles, whatever the
// outcome.
func (c *Composer) Post(ctx context.Context, threadID uuid.UUID) error {
	if c.posting {
		return ErrPostInFlight
	}
	if !c.CanPost() {
		return ErrNothingToPost
	}
	c.posting = true
	defer c.reset()

	var attachments []models.Attachment
	for _, img := range c.images {
		attachments = append(attachments, models.Attachment{
			ID:   uuid.NewString(),
			Type: models.AttachmentImage,
			URL:  c.resolveURL(ctx, img),
			Name: img.Name,
		})
	}
	if c.voice != nil {
		attachments = append(attachments, models.Attachment{
			ID:       uuid.NewString(),
			Type:     models.AttachmentVoice,
			URL:      c.resolveURL(ctx, *c.voice),
			Name:     c.voice.Name,
			Duration: c.voice.Duration,
		})
	}

	content := c.text
	if c.parentID != nil && c.replyToName != "" {
		token := "@" + c.replyToName
		if !hasMentionPrefix(content, token) {
			content = token + " " + content
		}
	}

	return c.poster.CreateMessage(ctx, threadID, content, attachments, c.parentID, c.citations)
}

// hasMentionPrefix reports whether text starts with the exact mention token.
// A longer name sharing the token as a prefix ("@TanakaXYZ" vs "@Tanaka")
// does not count: the token must end at a word boundary.
func hasMentionPrefix(text, token string) bool {
	rest, ok := strings.CutPrefix(text, token)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	return !isWordChar(rest[0])
}

func isWordChar(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

func (c *Composer) resolveURL(ctx context.Context, f LocalFile) string {
	url, err := c.uploader.UploadAttachment(ctx, f.Name, f.ContentType, f.Data)
	if err != nil {
		slog.Warn("attachment upload failed, using local url", "name", f.Name, "error", err)
		return f.LocalURL
	}
	return url
}

func (c *Composer) reset() {
	c.text = ""
	c.images = nil
	c.voice = nil
	c.citations = nil
	c.posting = false
	c.parentID = nil
	c.replyToName = ""
}
