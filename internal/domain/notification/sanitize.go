package notification

import (
	"strings"
	"unicode"
)

// Sanitize normalizes submitted content: every control character becomes a
// space, runs of spaces collapse to one, and the result is trimmed.
// Only ASCII space and control characters count as whitespace, so U+00A0 and
// the other Unicode spaces are kept. It is idempotent and never grows its input.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSpace := false
	for _, r := range raw {
		if r == ' ' || unicode.IsControl(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
