package forum

import "regexp"

var mentionRe = regexp.MustCompile(`@(\w+)`)

// ParseMentions returns every @name token in text, stripped of the leading
// @, in order of appearance. Duplicates are kept. No check is made that the
// name belongs to a real user.
func ParseMentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// ContainsMention reports whether text mentions name. The comparison is
// case-sensitive, matching names exactly as stored.
func ContainsMention(text, name string) bool {
	if name == "" {
		return false
	}
	for _, m := range ParseMentions(text) {
		if m == name {
			return true
		}
	}
	return false
}
