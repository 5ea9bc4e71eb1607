// Package textutil normalizes raw article bodies into plain text.
package textutil

import (
	"html"
	"regexp"
	"strings"
)

// DefaultMaxLen is the cleaned-content length cap used for storage and analysis.
const DefaultMaxLen = 8000

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Clean strips markup tags, decodes HTML entities, collapses whitespace and
// truncates the result to maxLen runes. Truncation is measured after cleaning,
// so the returned string never exceeds maxLen. maxLen <= 0 means no cap.
//
// Tags are stripped before entities are decoded, so escaped markup like
// &lt;p&gt; decodes to literal <p> text and survives a single pass. Clean is
// applied exactly once per article on ingest; idempotence holds for already
// plain text, not for text that decodes into new markup.
func Clean(raw string, maxLen int) string {
	noTags := tagPattern.ReplaceAllString(raw, " ")
	unescaped := html.UnescapeString(noTags)
	normalized := strings.Join(strings.Fields(unescaped), " ")

	if maxLen > 0 {
		if runes := []rune(normalized); len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return normalized
}
