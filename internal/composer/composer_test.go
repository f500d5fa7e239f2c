package composer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

type fakeUploader struct {
	failFor map[string]bool
	calls   []string
}

func (u *fakeUploader) UploadAttachment(ctx context.Context, name, contentType string, data []byte) (string, error) {
	u.calls = append(u.calls, name)
	if u.failFor[name] {
		return "", errors.New("storage unavailable")
	}
	return "https://cdn.test/" + name, nil
}

type fakePoster struct {
	calls       int
	content     string
	attachments []models.Attachment
	parentID    *uuid.UUID
	err         error
}

func (p *fakePoster) CreateMessage(ctx context.Context, threadID uuid.UUID, content string, attachments []models.Attachment, parentID *uuid.UUID, citations []models.Citation) error {
	p.calls++
	p.content = content
	p.attachments = attachments
	p.parentID = parentID
	return p.err
}

func newTestComposer() (*Composer, *fakeUploader, *fakePoster) {
	up := &fakeUploader{failFor: map[string]bool{}}
	po := &fakePoster{}
	return New(up, po), up, po
}

func TestCanPostGuards(t *testing.T) {
	c, _, _ := newTestComposer()
	require.False(t, c.CanPost())

	c.SetText("   ")
	require.False(t, c.CanPost())

	c.SetText("hello")
	require.True(t, c.CanPost())

	c.SetText("")
	require.NoError(t, c.AttachImage(LocalFile{Name: "a.png"}))
	require.True(t, c.CanPost())

	c2, _, _ := newTestComposer()
	c2.AttachVoice(LocalFile{Name: "v.webm"})
	require.True(t, c2.CanPost())
}

func TestAttachImageRejectsFifth(t *testing.T) {
	c, _, _ := newTestComposer()
	for i := 0; i < MaxImages; i++ {
		require.NoError(t, c.AttachImage(LocalFile{Name: "img"}))
	}
	require.ErrorIs(t, c.AttachImage(LocalFile{Name: "fifth"}), ErrTooManyImages)
	require.Len(t, c.Images(), MaxImages)
}

func TestAttachVoiceReplacesPrior(t *testing.T) {
	c, _, _ := newTestComposer()
	c.AttachVoice(LocalFile{Name: "first.webm"})
	c.AttachVoice(LocalFile{Name: "second.webm"})
	require.Equal(t, "second.webm", c.Voice().Name)
}

func TestPostUploadsAndResets(t *testing.T) {
	c, up, po := newTestComposer()
	c.SetText("flow temp issue")
	require.NoError(t, c.AttachImage(LocalFile{Name: "wiring.png", LocalURL: "blob:local-1"}))
	c.AttachVoice(LocalFile{Name: "note.webm", LocalURL: "mem://r1", Duration: 7})

	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, 1, po.calls)
	require.Equal(t, []string{"wiring.png", "note.webm"}, up.calls)
	require.Len(t, po.attachments, 2)
	require.Equal(t, models.AttachmentImage, po.attachments[0].Type)
	require.Equal(t, "https://cdn.test/wiring.png", po.attachments[0].URL)
	require.Equal(t, models.AttachmentVoice, po.attachments[1].Type)
	require.Equal(t, float64(7), po.attachments[1].Duration)

	// Draft resets after the call settles.
	require.Equal(t, "", c.Text())
	require.Empty(t, c.Images())
	require.Nil(t, c.Voice())
	require.False(t, c.CanPost())
}

func TestPostFallsBackToLocalURLOnUploadFailure(t *testing.T) {
	c, up, po := newTestComposer()
	up.failFor["broken.png"] = true
	require.NoError(t, c.AttachImage(LocalFile{Name: "ok.png", LocalURL: "blob:ok"}))
	require.NoError(t, c.AttachImage(LocalFile{Name: "broken.png", LocalURL: "blob:broken"}))

	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, 1, po.calls)
	require.Equal(t, "https://cdn.test/ok.png", po.attachments[0].URL)
	require.Equal(t, "blob:broken", po.attachments[1].URL)
}

func TestPostPrependsReplyMention(t *testing.T) {
	parent := uuid.New()

	c, _, po := newTestComposer()
	c.SetText("agreed, check the strainer")
	c.SetReplyContext(&parent, "Tanaka")
	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "@Tanaka agreed, check the strainer", po.content)
	require.Equal(t, &parent, po.parentID)

	c.SetText("@Tanaka already addressed")
	c.SetReplyContext(&parent, "Tanaka")
	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "@Tanaka already addressed", po.content)
}

func TestPostPrependsMentionDespiteLongerNamePrefix(t *testing.T) {
	parent := uuid.New()

	// "@TanakaXYZ" mentions a different user; the reply target still gets
	// their own mention prepended.
	c, _, po := newTestComposer()
	c.SetText("@TanakaXYZ mentioned this first")
	c.SetReplyContext(&parent, "Tanaka")
	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "@Tanaka @TanakaXYZ mentioned this first", po.content)

	// A bare token with no trailing text counts as already mentioned.
	c.SetText("@Tanaka")
	c.SetReplyContext(&parent, "Tanaka")
	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "@Tanaka", po.content)

	// Punctuation after the token is a word boundary.
	c.SetText("@Tanaka, see above")
	c.SetReplyContext(&parent, "Tanaka")
	require.NoError(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "@Tanaka, see above", po.content)
}

func TestPostResetsEvenOnFailure(t *testing.T) {
	c, _, po := newTestComposer()
	po.err = errors.New("backend down")
	c.SetText("will fail")

	require.Error(t, c.Post(context.Background(), uuid.New()))
	require.Equal(t, "", c.Text())
	require.False(t, c.CanPost())
}

func TestPostRequiresContent(t *testing.T) {
	c, _, po := newTestComposer()
	require.ErrorIs(t, c.Post(context.Background(), uuid.New()), ErrNothingToPost)
	require.Equal(t, 0, po.calls)
}
