package checks

import (
	"fmt"
	"sync"

	regexp "github.com/wasilibs/go-re2"
)

var builtins = map[Family]func() Definition{
	FamilySecrets:             secretsDefinition,
	FamilyCommandInjection:    commandInjectionDefinition,
	FamilySensitiveFileAccess: sensitiveFileAccessDefinition,
	FamilyToolPoisoning:       toolPoisoningDefinition,
	FamilyPromptInjection:     promptInjectionDefinition,
	FamilyCodeInjection:       codeInjectionDefinition,
	FamilyDeserialization:     deserializationDefinition,
	FamilyPathTraversal:       pathTraversalDefinition,
	FamilySQLInjection:        sqlInjectionDefinition,
	FamilySSRF:                ssrfDefinition,
}

// loaders holds one compile-once guard per family. The first Load of a
// family compiles its table; every later caller gets the same *Catalog.
var loaders = func() map[Family]func() (*Catalog, error) {
	out := make(map[Family]func() (*Catalog, error), len(builtins))
	for family, build := range builtins {
		out[family] = sync.OnceValues(func() (*Catalog, error) {
			return compile(build())
		})
	}
	return out
}()

// Load returns the compiled catalog for family. Compilation happens once per
// process; a malformed pattern is reported here and never while matching.
func Load(family Family) (*Catalog, error) {
	load, ok := loaders[family]
	if !ok {
		return nil, fmt.Errorf("unknown check family %q", family)
	}
	return load()
}

// Definitions returns every family definition in detector order.
func Definitions() []Definition {
	out := make([]Definition, 0, len(Order))
	for _, family := range Order {
		out = append(out, builtins[family]())
	}
	return out
}

// Lookup returns the uncompiled definition of family.
func Lookup(family Family) (Definition, bool) {
	build, ok := builtins[family]
	if !ok {
		return Definition{}, false
	}
	return build(), true
}

func compile(def Definition) (*Catalog, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	compiled := make([]CompiledPattern, 0, len(def.Patterns))
	for _, p := range def.Patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %q: %w", def.Family, p.Name, err)
		}
		compiled = append(compiled, CompiledPattern{Pattern: p, Matcher: re})
	}
	return &Catalog{Definition: def, Compiled: compiled}, nil
}
