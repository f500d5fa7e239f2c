package forum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/models"
)

func sampleCitations() []models.Citation {
	return []models.Citation{
		{
			ManualID:     "f2b8a2d1-0000-4000-8000-000000000001",
			ManualTitle:  "PUZ-HA36 Service Manual",
			PageNumber:   12,
			SelectedText: "Check the refrigerant charge before commissioning.",
			FileURL:      "https://example.test/manuals/puz-ha36.pdf",
		},
	}
}

func TestEncodeDecodeCitationsRoundTrip(t *testing.T) {
	text := "The answer is on page 12."
	stored := EncodeCitations(text, sampleCitations())
	require.Contains(t, stored, "---MANUAL_CITATIONS---")

	gotText, gotCitations := DecodeCitations(stored)
	require.Equal(t, text, gotText)
	require.Len(t, gotCitations, 1)
	require.Equal(t, "PUZ-HA36 Service Manual", gotCitations[0].ManualTitle)
	require.Equal(t, 12, gotCitations[0].PageNumber)
}

func TestEncodeCitationsEmptyListIsNoop(t *testing.T) {
	require.Equal(t, "plain text", EncodeCitations("plain text", nil))
	require.Equal(t, "plain text", EncodeCitations("plain text", []models.Citation{}))
}

func TestDecodeCitationsWithoutMarker(t *testing.T) {
	text, citations := DecodeCitations("just a message")
	require.Equal(t, "just a message", text)
	require.Nil(t, citations)
}

func TestDecodeCitationsMalformedPayload(t *testing.T) {
	stored := "body" + citationMarker + "{not json"
	text, citations := DecodeCitations(stored)
	require.Equal(t, stored, text)
	require.Nil(t, citations)
}

func TestDecodeCitationsUsesLastMarker(t *testing.T) {
	// A message legitimately containing the marker text splits at the
	// final occurrence.
	inner := "quoting the delimiter: ---MANUAL_CITATIONS--- looks like this"
	stored := EncodeCitations(inner, sampleCitations())
	text, citations := DecodeCitations(stored)
	require.Equal(t, inner, text)
	require.Len(t, citations, 1)
	require.True(t, strings.Contains(text, "---MANUAL_CITATIONS---"))
}
