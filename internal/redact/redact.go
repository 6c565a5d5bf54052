// Package redact masks credentials in text before it is shown or written.
// Findings carry the raw source line that triggered them, and that line can
// hold a live secret next to the dangerous call.
package redact

import regexp "github.com/wasilibs/go-re2"

type rule struct {
	re   *regexp.Regexp
	repl string
}

var rules = []rule{
	{regexp.MustCompile(`-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z0-9 ]*PRIVATE KEY-----`), "[REDACTED PRIVATE KEY]"},
	{regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._~+/=-]{8,}`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`\b([a-zA-Z][a-zA-Z0-9+.-]*://[^:/\s"'@]+:)[^@\s"']+(@)`), "${1}[REDACTED]${2}"},
	{regexp.MustCompile(`(?i)\b([a-z0-9_]*(?:api[_-]?key|secret|token|password|passwd|pwd))\b(\s*[:=]\s*)(["']?)([A-Za-z0-9._~+/=-]{8,})(["']?)`), `${1}${2}${3}[REDACTED]${5}`},
	{regexp.MustCompile(`\bsk-(?:proj-|live-|svcacct-|ant-)?[A-Za-z0-9_-]{20,}`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`\b(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{16,}`), "[REDACTED_STRIPE_KEY]"},
	{regexp.MustCompile(`\b(A3T|AKIA|ASIA|AGPA|AIDA|ANPA|ANVA|AROA|AIPA)[0-9A-Z]{16}\b`), "[REDACTED_AWS_ACCESS_KEY]"},
	{regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{20,}|github_pat_[A-Za-z0-9_]{22,})`), "[REDACTED_GITHUB_TOKEN]"},
	{regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}`), "[REDACTED_SLACK_TOKEN]"},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`), "[REDACTED_GOOGLE_API_KEY]"},
}

// Text masks common secret and token patterns in in.
func Text(in string) string {
	out := in
	for _, r := range rules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return out
}
