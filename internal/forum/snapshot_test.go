package forum

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

func strptr(s string) *string { return &s }

func buildFixture() (*Snapshot, []uuid.UUID) {
	author := uuid.New()
	other := uuid.New()
	threadA := uuid.New()
	threadB := uuid.New()

	profiles := []models.Profile{
		{ID: author, FullName: strptr("Tanaka")},
		{ID: other, FullName: strptr("Suzuki")},
	}
	threads := []models.Thread{
		{ID: threadA, Title: "Flow temp drops on defrost", Category: models.CategoryTroubleshooting, Status: models.StatusOpen, CreatedBy: author},
		{ID: threadB, Title: "Commissioning checklist", Category: models.CategoryCommissioning, Status: models.StatusClosed, CreatedBy: other},
	}
	now := time.Now()
	messages := []models.Message{
		{ID: uuid.New(), ThreadID: threadA, SenderID: author, Content: "@Suzuki seeing flow temp fall during defrost", CreatedAt: now},
		{ID: uuid.New(), ThreadID: threadA, SenderID: other, Content: "Check the backup heater wiring", CreatedAt: now.Add(time.Minute)},
		{ID: uuid.New(), ThreadID: threadB, SenderID: other, Content: "Full checklist attached", CreatedAt: now},
	}
	entries := []models.KnowledgeEntry{
		{ID: uuid.New(), ThreadID: threadB, Title: "Commissioning checklist", SummaryContent: "Steps 1-9."},
	}

	return BuildSnapshot(threads, profiles, messages, entries, MaxReplyDepth), []uuid.UUID{author, other, threadA, threadB}
}

func TestBuildSnapshotBodyAndReplies(t *testing.T) {
	snap, ids := buildFixture()
	author, threadA := ids[0], ids[2]

	require.Len(t, snap.Threads, 2)
	view := snap.Threads[0]
	require.Equal(t, threadA, view.ID)
	require.Equal(t, "@Suzuki seeing flow temp fall during defrost", view.Body)
	require.Equal(t, []string{"Suzuki"}, view.Mentions)
	require.NotNil(t, view.Profile)
	require.Equal(t, author, view.Profile.ID)
	require.Len(t, view.Replies, 1)
	require.Equal(t, "Check the backup heater wiring", view.Replies[0].Message.Content)
	require.Nil(t, view.KnowledgeEntry)
	require.NotNil(t, snap.Threads[1].KnowledgeEntry)
}

func TestBuildSnapshotFoldsLegacyCitations(t *testing.T) {
	threadID := uuid.New()
	sender := uuid.New()
	stored := EncodeCitations("see the manual", sampleCitations())
	threads := []models.Thread{{ID: threadID, Title: "t", Category: models.CategoryInstallation, CreatedBy: sender}}
	messages := []models.Message{{ID: uuid.New(), ThreadID: threadID, SenderID: sender, Content: stored}}

	snap := BuildSnapshot(threads, nil, messages, nil, MaxReplyDepth)
	require.Equal(t, "see the manual", snap.Threads[0].Body)
	require.Len(t, snap.Threads[0].Messages[0].Citations, 1)
}

func TestBuildSnapshotHonorsMaxDepth(t *testing.T) {
	threadID := uuid.New()
	sender := uuid.New()
	now := time.Now()

	body := models.Message{ID: uuid.New(), ThreadID: threadID, SenderID: sender, Content: "body", CreatedAt: now}
	first := models.Message{ID: uuid.New(), ThreadID: threadID, SenderID: sender, Content: "first", CreatedAt: now.Add(time.Minute)}
	second := models.Message{ID: uuid.New(), ThreadID: threadID, SenderID: sender, Content: "second", ParentID: &first.ID, CreatedAt: now.Add(2 * time.Minute)}
	threads := []models.Thread{{ID: threadID, Title: "t", Category: models.CategoryInstallation, CreatedBy: sender}}
	messages := []models.Message{body, first, second}

	// Depth ceiling 1 flattens the nested reply at its parent's depth.
	snap := BuildSnapshot(threads, nil, messages, nil, 1)
	require.Len(t, snap.Threads[0].Replies, 1)
	require.Len(t, snap.Threads[0].Replies[0].Children, 1)
	require.Equal(t, 1, snap.Threads[0].Replies[0].Children[0].Depth)

	snap = BuildSnapshot(threads, nil, messages, nil, MaxReplyDepth)
	require.Equal(t, 2, snap.Threads[0].Replies[0].Children[0].Depth)
}

func TestSnapshotFilterQueryMatchesTitleBodyAuthor(t *testing.T) {
	snap, _ := buildFixture()

	require.Len(t, snap.Filter(Filter{Query: "defrost"}), 1)
	require.Len(t, snap.Filter(Filter{Query: "TANAKA"}), 1)
	require.Len(t, snap.Filter(Filter{Query: "checklist"}), 1)
	require.Empty(t, snap.Filter(Filter{Query: "no such thing"}))
}

func TestSnapshotFilterModes(t *testing.T) {
	snap, ids := buildFixture()
	author := ids[0]

	mine := snap.Filter(Filter{Mode: "my", UserID: author})
	require.Len(t, mine, 1)
	require.Equal(t, author, mine[0].CreatedBy)

	mentioned := snap.Filter(Filter{Mode: "mentioned", DisplayName: "Suzuki"})
	require.Len(t, mentioned, 1)

	require.Empty(t, snap.Filter(Filter{Mode: "mentioned", DisplayName: "suzuki"}))
}

func TestSnapshotFilterCategory(t *testing.T) {
	snap, _ := buildFixture()
	out := snap.Filter(Filter{Category: models.CategoryCommissioning})
	require.Len(t, out, 1)
	require.Equal(t, models.CategoryCommissioning, out[0].Category)
}
