package matter

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesDocument reports whether a received document name satisfies a
// checklist item's document pattern. Matching is case-insensitive and uses
// doublestar for brace and ** support, falling back to a substring check on
// the pattern's literal core.
func MatchesDocument(pattern, name string) bool {
	if pattern == "" || name == "" {
		return false
	}
	p := strings.ToLower(pattern)
	n := strings.ToLower(name)

	if matched, err := doublestar.Match(p, n); err == nil && matched {
		return true
	}

	// Fall back to substring matching on the literal portion so that
	// "*contract*" still matches "Contract_2024.pdf" when the name has
	// path separators the glob would reject.
	core := strings.Trim(p, "*")
	if i := strings.IndexAny(core, "{["); i >= 0 {
		core = core[:i]
	}
	return core != "" && strings.Contains(n, core)
}
