package suppress

import (
	"strings"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// Marker starts an inline annotation:
//
//	eval(expr)  # mcp-sentinel:ignore code_injection -- trusted template
//
// The target is a vulnerability type or finding ID, globs allowed. An
// annotation in a comment-only line applies to the next line as well.
const Marker = "mcp-sentinel:ignore"

// commentPrefixes are the language-agnostic comment markers we recognize.
var commentPrefixes = []string{"//", "#", "--", "/*", "<!--", "*"}

// ParseInline collects the annotations in content keyed by the line number
// they apply to.
func ParseInline(content string) map[int][]InlineSuppression {
	if !strings.Contains(content, Marker) {
		return nil
	}
	out := make(map[int][]InlineSuppression)
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		target, reason, ok := parseSuppressionComment(line)
		if !ok {
			continue
		}
		s := InlineSuppression{Target: target, Reason: reason, Line: i + 1}
		out[i+1] = append(out[i+1], s)
		if commentOnly(line) {
			out[i+2] = append(out[i+2], s)
		}
	}
	return out
}

// ApplyInline drops findings covered by an annotation on their line.
func ApplyInline(findings []model.Finding, inline map[int][]InlineSuppression) (active []model.Finding, suppressed int) {
	if len(inline) == 0 {
		return findings, 0
	}
	active = make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if inlineMatches(f, inline[f.Location.Line]) {
			suppressed++
			continue
		}
		active = append(active, f)
	}
	return active, suppressed
}

func inlineMatches(f model.Finding, annotations []InlineSuppression) bool {
	for _, s := range annotations {
		if matchGlob(s.Target, string(f.Type)) || matchGlob(s.Target, f.ID) {
			return true
		}
	}
	return false
}

// parseSuppressionComment extracts the target and optional reason from a line
// containing "mcp-sentinel:ignore <target>" or
// "mcp-sentinel:ignore <target> -- reason" inside a comment.
func parseSuppressionComment(line string) (target, reason string, ok bool) {
	idx := strings.Index(line, Marker)
	if idx < 0 {
		return "", "", false
	}
	if !endsWithComment(strings.TrimSpace(line[:idx])) {
		return "", "", false
	}

	rest := strings.TrimSpace(line[idx+len(Marker):])
	rest = strings.TrimSuffix(rest, "*/")
	rest = strings.TrimSuffix(rest, "-->")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", "", false
	}

	if before, after, found := strings.Cut(rest, " -- "); found {
		target = strings.TrimSpace(before)
		reason = strings.TrimSpace(after)
	} else {
		target = rest
	}
	if target == "" || strings.ContainsAny(target, " \t") {
		return "", "", false
	}
	// Reject standalone wildcard; annotations name what they accept.
	if target == "*" {
		return "", "", false
	}
	return target, reason, true
}

// endsWithComment reports whether the text before the marker opens a
// comment, either as the whole line or trailing code.
func endsWithComment(before string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasSuffix(before, prefix) {
			return true
		}
	}
	return false
}

func commentOnly(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
