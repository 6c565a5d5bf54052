// Package sanitize makes untrusted text safe to print on a terminal.
// Scanned repositories control both file names and file contents, so
// either can carry escape sequences aimed at the reader's terminal.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

const (
	maxPathLen    = 240
	maxSnippetLen = 400
)

// Path flattens a file path to one printable line: newlines and tabs become
// spaces, other control characters are dropped, and overly long paths are
// truncated.
func Path(path string) string {
	return clean(strings.TrimSpace(path), maxPathLen, false)
}

// Snippet cleans a source line for display. Tabs are kept; every other
// control character, including ESC, is dropped.
func Snippet(line string) string {
	return clean(strings.TrimRight(line, " \t\r\n"), maxSnippetLen, true)
}

func clean(s string, limit int, keepTabs bool) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\t' && keepTabs:
			b.WriteRune(r)
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			// C0, DEL and C1 controls.
		case r == utf8.RuneError:
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if keepTabs {
		out = strings.TrimRight(b.String(), " ")
	}
	if len(out) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "..."
	}
	return out
}
