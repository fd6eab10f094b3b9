// Package sqlextract turns free-form model output into exactly one SQL
// statement. The model may wrap its answer in prose, markdown fences or emit
// several statements; extraction is deterministic and has no hidden state.
package sqlextract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/askdb/askdb/internal/askerrors"
)

// fencedSQL matches a markdown code fence tagged as SQL. The first such block
// wins over any surrounding prose.
var fencedSQL = regexp.MustCompile("(?is)```sql\\s*(.*?)```")

// fencedAny matches an untagged code fence, used when no sql-tagged fence exists.
var fencedAny = regexp.MustCompile("(?s)```\\s*(.*?)```")

// startingKeywords are the statement openers accepted as SQL. This is a
// syntactic sanity check, not a parser.
var startingKeywords = []string{
	"SELECT",
	"WITH",
	"INSERT",
	"UPDATE",
	"DELETE",
	"SHOW",
	"DESCRIBE",
	"DESC",
	"EXPLAIN",
}

// Extract returns the single SQL statement contained in raw model output.
// Preference order: a ```sql fenced block, then any fenced block, then the raw
// text. When the candidate holds multiple ;-separated statements only the
// first is kept; the rest are discarded. Returns ErrExtractionFailed when the
// candidate does not begin with a recognizable SQL keyword.
func Extract(raw string) (string, error) {
	candidate := raw

	if m := fencedSQL.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	} else if m := fencedAny.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	candidate = strings.TrimSpace(candidate)
	candidate = firstStatement(candidate)

	if !startsWithSQLKeyword(candidate) {
		return "", fmt.Errorf("%w: %q", askerrors.ErrExtractionFailed, truncateForError(raw))
	}

	return candidate, nil
}

// firstStatement keeps everything up to and including the first statement
// terminator. Without a terminator the whole text is the statement.
func firstStatement(text string) string {
	if idx := strings.Index(text, ";"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}

	return text
}

func startsWithSQLKeyword(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range startingKeywords {
		if strings.HasPrefix(upper, kw+" ") || strings.HasPrefix(upper, kw+"\n") || upper == kw {
			return true
		}
	}

	return false
}

// truncateForError bounds the rejected output quoted in error messages.
func truncateForError(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 120 {
		return raw[:120] + "..."
	}

	return raw
}
