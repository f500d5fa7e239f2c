package manuals

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

func TestIsPDF(t *testing.T) {
	require.True(t, isPDF("application/pdf", "manual.pdf"))
	require.True(t, isPDF("APPLICATION/PDF", "whatever.bin"))
	require.True(t, isPDF("", "Manual.PDF"))
	require.True(t, isPDF("application/octet-stream", "manual.pdf"))

	require.False(t, isPDF("image/png", "manual.pdf"))
	require.False(t, isPDF("application/octet-stream", "manual.docx"))
	require.False(t, isPDF("", "readme.txt"))
}

func TestValidManualType(t *testing.T) {
	require.True(t, validManualType(nil))
	for _, known := range models.ManualTypes {
		v := known
		require.True(t, validManualType(&v))
	}
	bad := "Brochure"
	require.False(t, validManualType(&bad))
}

func TestUploadRejectsUnknownManualType(t *testing.T) {
	svc := NewService(nil, nil, "manuals", 0)
	bad := "Brochure"
	_, err := svc.Upload(context.Background(), UploadRequest{
		Title:       "PUZ-HA36",
		ManualType:  &bad,
		FileName:    "manual.pdf",
		ContentType: "application/pdf",
	})
	require.ErrorIs(t, err, ErrBadManualType)
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "PUZ-HA36_install_guide.pdf", sanitizeFileName("PUZ-HA36 install guide.pdf"))
	require.Equal(t, "_____.pdf", sanitizeFileName("取扱説明書.pdf"))
	require.Equal(t, "manual.pdf", sanitizeFileName(""))
	require.False(t, strings.ContainsAny(sanitizeFileName("a/b\\c:d.pdf"), "/\\:"))
}
