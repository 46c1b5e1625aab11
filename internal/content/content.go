// Package content derives dedup keys and plain-text projections from raw
// article fields. The hash is a deduplication fingerprint, not an integrity
// check, and the plain-text projection is a best-effort strip, not an HTML
// parser.
package content

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// Hash returns the deterministic dedup fingerprint for an article identity.
// Two articles with the same (title, url, guid) always hash equal, whatever
// their bodies contain.
func Hash(title, url, guid string) string {
	h := sha256.Sum256([]byte(title + "|" + url + "|" + guid))
	return fmt.Sprintf("%x", h)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// entityDecodes is the fixed set of entity replacements applied after tag
// stripping. Anything outside this set passes through untouched.
var entityDecodes = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// ExtractPlainText strips markup tags, decodes the fixed entity set, and
// trims surrounding whitespace.
func ExtractPlainText(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = entityDecodes.Replace(text)
	return strings.TrimSpace(text)
}

// WordCount counts whitespace-delimited tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ReadingMinutes estimates reading time at 200 words per minute, never less
// than one minute.
func ReadingMinutes(wordCount int) int {
	minutes := wordCount / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
