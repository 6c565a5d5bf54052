// Package suppress drops findings the user has accepted, either through a
// central suppressions file or through mcp-sentinel:ignore comments next to
// the flagged line.
package suppress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	regexp "github.com/wasilibs/go-re2"
	"gopkg.in/yaml.v3"

	"github.com/beejak/MCP-Sentinel/internal/intake"
	"github.com/beejak/MCP-Sentinel/internal/model"
)

// DefaultFile is the suppressions file looked up at the scan root.
const DefaultFile = ".sentinel-suppressions.yaml"

type document struct {
	Suppressions []Rule `yaml:"suppressions"`
}

// Load reads the suppressions file at path. A missing or empty file yields
// no rules. Unknown keys, rules without a reason and malformed expiry dates
// are errors; every bad rule is reported.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read suppressions %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse suppressions %s: %w", path, err)
	}

	var errs []error
	for i, r := range doc.Suppressions {
		if err := r.validate(); err != nil {
			errs = append(errs, fmt.Errorf("suppression rule %d: %w", i+1, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return AssignIDs(doc.Suppressions), nil
}

// Set is the compiled form of the rules that are in force at a given time.
// It is read-only once built and safe for concurrent use.
type Set struct {
	rules []compiledRule
}

type compiledRule struct {
	id       string
	typ      *regexp.Regexp
	pattern  *regexp.Regexp
	files    *regexp.Regexp
	severity string
}

// NewSet compiles rules, leaving out those expired at now and those too broad
// to be selective.
func NewSet(rules []Rule, now time.Time) (*Set, error) {
	s := &Set{}
	for _, r := range rules {
		if !r.selective() || r.IsExpired(now) {
			continue
		}
		cr := compiledRule{id: r.ID, severity: strings.ToLower(strings.TrimSpace(r.Severity))}
		var err error
		if cr.typ, err = compileGlob(r.Type); err != nil {
			return nil, fmt.Errorf("suppression %s: type: %w", r.ID, err)
		}
		if cr.pattern, err = compileGlob(r.Pattern); err != nil {
			return nil, fmt.Errorf("suppression %s: pattern: %w", r.ID, err)
		}
		if cr.files, err = compileGlob(r.Files); err != nil {
			return nil, fmt.Errorf("suppression %s: files: %w", r.ID, err)
		}
		s.rules = append(s.rules, cr)
	}
	return s, nil
}

// Len is the number of rules in force. A nil Set has none.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Filter drops the findings some rule matches and returns the rest in their
// original order. File globs see the slash path relative to root.
func (s *Set) Filter(findings []model.Finding, root string) (kept []model.Finding, dropped int) {
	if s.Len() == 0 {
		return findings, 0
	}
	kept = findings[:0:0]
	for _, f := range findings {
		if s.covers(f, relativeTo(root, f.Location.File)) {
			dropped++
			continue
		}
		kept = append(kept, f)
	}
	return kept, dropped
}

func (s *Set) covers(f model.Finding, rel string) bool {
	for _, r := range s.rules {
		if r.matches(f, rel) {
			return true
		}
	}
	return false
}

func (r compiledRule) matches(f model.Finding, rel string) bool {
	switch {
	case r.typ != nil && !r.typ.MatchString(string(f.Type)):
		return false
	case r.pattern != nil && !r.pattern.MatchString(strings.TrimSpace(f.EvidenceString("pattern"))):
		return false
	case r.severity != "" && r.severity != f.Severity.String():
		return false
	case r.files != nil && !r.files.MatchString(rel):
		return false
	}
	return true
}

// compileGlob turns a case-insensitive glob into a whole-string matcher. An
// empty glob compiles to nil, meaning "any".
func compileGlob(glob string) (*regexp.Regexp, error) {
	glob = strings.TrimSpace(glob)
	if glob == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + intake.GlobToRegex(glob, true))
}

func matchGlob(glob, value string) bool {
	re, err := compileGlob(glob)
	return err == nil && re != nil && re.MatchString(strings.TrimSpace(value))
}

func relativeTo(root, file string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, file); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			file = rel
		}
	}
	return filepath.ToSlash(file)
}
