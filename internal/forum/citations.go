package forum

import (
	"encoding/json"
	"strings"

	"github.com/ecodanforum/backend/internal/models"
)

// Older clients piggybacked citations inside the message text behind this
// delimiter. New rows carry citations in a dedicated column; the codec
// remains so stored content from either era renders the same.
const citationMarker = "\n\n---MANUAL_CITATIONS---\n"

// EncodeCitations appends the serialized citation list to text behind the
// marker. Text without citations is returned unchanged.
func EncodeCitations(text string, citations []models.Citation) string {
	if len(citations) == 0 {
		return text
	}
	data, err := json.Marshal(citations)
	if err != nil {
		return text
	}
	return text + citationMarker + string(data)
}

// DecodeCitations splits stored content back into plain text and its
// citation list. Malformed input is never an error: the whole string is
// treated as plain text with zero citations.
func DecodeCitations(stored string) (string, []models.Citation) {
	idx := strings.LastIndex(stored, citationMarker)
	if idx < 0 {
		return stored, nil
	}

	payload := stored[idx+len(citationMarker):]
	var citations []models.Citation
	if err := json.Unmarshal([]byte(payload), &citations); err != nil {
		return stored, nil
	}
	return stored[:idx], citations
}
