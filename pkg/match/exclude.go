package match

import (
	"errors"

	"github.com/bmatcuk/doublestar/v4"
)

var errInvalidGlob = errors.New("invalid glob pattern")

// ExcludeFilter applies a secondary glob-based rejection list on top of the
// core regex Pattern (SPEC_FULL.md §3.2). This is a supplemental CLI
// feature, never consumed by the core Lister directly — the CLI and the
// gofetch facade apply it through download.ExcludeFilteredListing, which
// drops excluded keys from each listed page before the Lister's
// Pattern.Match check. Globs are matched against the full object key.
type ExcludeFilter struct {
	globs []string
}

// NewExcludeFilter validates and stores a set of doublestar exclude globs.
func NewExcludeFilter(globs []string) (*ExcludeFilter, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, &PatternError{Pattern: g, Err: errInvalidGlob}
		}
	}
	return &ExcludeFilter{globs: globs}, nil
}

// Excluded reports whether key matches any configured exclude glob.
func (f *ExcludeFilter) Excluded(key string) bool {
	if f == nil {
		return false
	}
	for _, g := range f.globs {
		if matched, _ := doublestar.Match(g, key); matched {
			return true
		}
	}
	return false
}
