package suppress

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

const expiryLayout = "2006-01-02"

var ruleNamespace = uuid.MustParse("6f1c2a52-3d0e-4f4b-9a6e-2f0b8d3c9e71")

// Rule is one entry of the suppressions file. Every match field that is set
// must match the finding. A rule without match fields matches nothing.
type Rule struct {
	ID       string `yaml:"id,omitempty" json:"id,omitempty"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Pattern  string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Files    string `yaml:"files,omitempty" json:"files,omitempty"`
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`

	Reason  string `yaml:"reason" json:"reason"`
	Author  string `yaml:"author,omitempty" json:"author,omitempty"`
	Expires string `yaml:"expires,omitempty" json:"expires,omitempty"`
}

// IsExpired reports whether now is past the rule's expiry date. Rules with no
// date, or a date that does not parse, never expire here; Load rejects the
// latter.
func (r Rule) IsExpired(now time.Time) bool {
	until, err := r.expiry()
	return err == nil && !until.IsZero() && now.After(until)
}

func (r Rule) expiry() (time.Time, error) {
	if r.Expires == "" {
		return time.Time{}, nil
	}
	return time.Parse(expiryLayout, strings.TrimSpace(r.Expires))
}

func (r Rule) validate() error {
	var errs []error
	if strings.TrimSpace(r.Reason) == "" {
		errs = append(errs, errors.New("reason is required"))
	}
	if _, err := r.expiry(); err != nil {
		errs = append(errs, fmt.Errorf("expires %q is not YYYY-MM-DD", r.Expires))
	}
	if r.Severity != "" {
		if _, err := model.ParseSeverity(r.Severity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// selective is false for rules that would silence a whole family everywhere.
func (r Rule) selective() bool {
	if strings.TrimSpace(r.Type) == "*" || strings.TrimSpace(r.Pattern) == "*" {
		return false
	}
	return r.Type != "" || r.Pattern != "" || r.Files != "" || r.Severity != ""
}

func (r Rule) derivedID() string {
	key := strings.Join([]string{r.Type, r.Pattern, r.Files, r.Severity, r.Reason, r.Author, r.Expires}, "\x1f")
	id := uuid.NewSHA1(ruleNamespace, []byte(key)).String()
	return "sup-" + id[:8]
}

// AssignIDs returns a copy of rules where every rule carries a unique,
// slug-shaped ID. Missing IDs are derived from the rule's fields so they stay
// stable across runs; clashes get a numeric suffix.
func AssignIDs(rules []Rule) []Rule {
	out := append([]Rule(nil), rules...)
	seen := make(map[string]bool, len(out))
	for i := range out {
		id := slug(out[i].ID)
		if id == "" {
			id = out[i].derivedID()
		}
		candidate := id
		for n := 2; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s-%d", id, n)
		}
		seen[candidate] = true
		out[i].ID = candidate
	}
	return out
}

func slug(raw string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, strings.ToLower(strings.TrimSpace(raw)))
	return strings.Trim(s, "-_")
}

// InlineSuppression is one mcp-sentinel:ignore annotation found in source.
type InlineSuppression struct {
	Target string
	Reason string
	Line   int
}
