package checks

import (
	"errors"
	"fmt"
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

var idPrefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]{1,15}$`)

// Validate reports every structural problem in def at once.
func Validate(def Definition) error {
	var errs []string

	if strings.TrimSpace(string(def.Family)) == "" {
		errs = append(errs, "family is required")
	}
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !def.Type.Valid() {
		errs = append(errs, fmt.Sprintf("type %q is not a known vulnerability type", def.Type))
	}

	if !def.Implemented {
		if len(def.Patterns) > 0 {
			errs = append(errs, "unimplemented family must not declare patterns")
		}
		return joinErrors(def.Family, errs)
	}

	if !idPrefixPattern.MatchString(def.IDPrefix) {
		errs = append(errs, "id_prefix must match ^[A-Z][A-Z0-9-]{1,15}$")
	}
	if def.Confidence <= 0 || def.Confidence > 1 {
		errs = append(errs, "confidence must be in (0, 1]")
	}
	if len(def.Patterns) == 0 {
		errs = append(errs, "implemented family needs at least one pattern")
	}

	seen := make(map[string]struct{}, len(def.Patterns))
	for i, p := range def.Patterns {
		prefix := fmt.Sprintf("patterns[%d]", i)
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = append(errs, prefix+".name is required")
		} else if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, name))
		} else {
			seen[name] = struct{}{}
		}
		if strings.TrimSpace(p.Expr) == "" {
			errs = append(errs, prefix+".expr is required")
		}
		if !p.Severity.Valid() {
			errs = append(errs, prefix+".severity must be low|medium|high|critical")
		}
		if def.Description == "" && strings.TrimSpace(p.Description) == "" {
			errs = append(errs, prefix+".description is required when the family has no shared description")
		}
	}

	return joinErrors(def.Family, errs)
}

func joinErrors(family Family, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s definition: %w", family, errors.New(strings.Join(errs, "; ")))
}
