// Package match implements the core key-selection pattern (a compiled
// regex applied via substring search, per spec.md §3) plus an optional
// secondary glob-exclude filter layered on top for the CLI.
package match

import "regexp"

// Pattern is the core selection predicate the Lister consumes: a compiled
// regex matched against each candidate key via substring search. A nil
// Pattern matches every key.
type Pattern struct {
	re *regexp.Regexp
}

// Compile compiles expr into a Pattern. An empty expr compiles to a
// Pattern that matches everything.
func Compile(expr string) (*Pattern, error) {
	if expr == "" {
		return &Pattern{}, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}
	return &Pattern{re: re}, nil
}

// Match reports whether key should be selected. A Pattern with no
// compiled regex (empty expression) matches every key.
func (p *Pattern) Match(key string) bool {
	if p == nil || p.re == nil {
		return true
	}
	return p.re.MatchString(key)
}

// PatternError wraps a regex compilation failure with the offending
// expression.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
