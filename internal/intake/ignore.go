package intake

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

// DefaultIgnoreFile is the ignore file looked up at the scan root.
const DefaultIgnoreFile = ".sentinelignore"

// IgnoreRules is an ordered list of gitignore-style patterns, compiled from
// an ignore file or from --exclude globs. The last matching pattern decides.
type IgnoreRules struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	source  string
	negate  bool
	dirOnly bool
	re      *regexp.Regexp
}

// LoadIgnoreFile reads an ignore file. A missing file yields nil rules.
func LoadIgnoreFile(path string) (*IgnoreRules, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return ParseIgnorePatterns(strings.Split(string(data), "\n")), nil
}

// ParseIgnorePatterns compiles pattern lines. Blank lines and # comments are
// dropped, as are patterns that do not compile.
//
// Supported syntax: * and ? within a segment, ** across segments, [abc] and
// [!abc] classes, a trailing / for directories only, a leading / or any
// inner / to anchor at the scan root, a leading ! to re-include, and \ to
// escape the next character.
func ParseIgnorePatterns(lines []string) *IgnoreRules {
	rules := &IgnoreRules{}
	for _, raw := range lines {
		if p, ok := parseIgnoreLine(raw); ok {
			rules.patterns = append(rules.patterns, p)
		}
	}
	return rules
}

func parseIgnoreLine(raw string) (ignorePattern, bool) {
	line := strings.TrimPrefix(strings.TrimSpace(raw), "./")
	if line == "" || line[0] == '#' {
		return ignorePattern{}, false
	}

	p := ignorePattern{source: line}
	if line[0] == '!' {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignorePattern{}, false
	}

	re, err := regexp.Compile(GlobToRegex(line, anchored))
	if err != nil {
		return ignorePattern{}, false
	}
	p.re = re
	return p, true
}

// GlobToRegex translates one glob into an RE2 expression matched against the
// whole root-relative path.
func GlobToRegex(glob string, anchored bool) string {
	var b strings.Builder
	b.WriteString("^")
	if !anchored {
		b.WriteString("(?:.*/)?")
	}
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i += 2
		case glob[i] == '*':
			b.WriteString("[^/]*")
			i++
		case glob[i] == '?':
			b.WriteString("[^/]")
			i++
		case glob[i] == '\\' && i+1 < len(glob):
			b.WriteString(quoteMeta(glob[i+1 : i+2]))
			i += 2
		case glob[i] == '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end <= 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := glob[i+1 : i+1+end]
			if class[0] == '!' {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 2
		default:
			j := i + 1
			for j < len(glob) && !strings.ContainsRune(`*?[\`, rune(glob[j])) {
				j++
			}
			b.WriteString(quoteMeta(glob[i:j]))
			i = j
		}
	}
	b.WriteString("$")
	return b.String()
}

func quoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ShouldIgnore reports whether relPath (slash separated, relative to the scan
// root) is excluded. A nil receiver excludes nothing.
func (r *IgnoreRules) ShouldIgnore(relPath string, isDir bool) bool {
	if r == nil {
		return false
	}
	relPath = strings.TrimPrefix(strings.TrimSpace(relPath), "./")
	if relPath == "" {
		return false
	}

	ignored := false
	for _, p := range r.patterns {
		if (isDir || !p.dirOnly) && p.re.MatchString(relPath) {
			ignored = !p.negate
		}
	}
	return ignored
}

// Patterns returns the source of every compiled pattern, in order.
func (r *IgnoreRules) Patterns() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.source
	}
	return out
}
