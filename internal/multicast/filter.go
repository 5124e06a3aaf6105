package multicast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
)

// regexPrefix marks a name filter as a regular expression
const regexPrefix = "regex:"

var errInvalidWildcard = errors.New("malformed wildcard expression")

// NameFilter matches declaration names against a wildcard expression or,
// when prefixed with "regex:", a regular expression. A nil filter matches
// every name.
type NameFilter struct {
	pattern string
	regex   *regexp2.Regexp
}

// CompileNameFilter compiles pattern. An empty pattern yields a nil filter.
func CompileNameFilter(pattern string) (*NameFilter, error) {
	if pattern == "" {
		return nil, nil
	}
	if expr, ok := strings.CutPrefix(pattern, regexPrefix); ok {
		re, err := regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compile regular expression: %w", err)
		}
		return &NameFilter{pattern: pattern, regex: re}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errInvalidWildcard
	}
	return &NameFilter{pattern: pattern}, nil
}

// Match reports whether name passes the filter
func (f *NameFilter) Match(name string) bool {
	if f == nil {
		return true
	}
	if f.regex != nil {
		ok, err := f.regex.MatchString(name)
		return err == nil && ok
	}
	ok, err := doublestar.Match(f.pattern, name)
	return err == nil && ok
}

// String returns the source pattern
func (f *NameFilter) String() string {
	if f == nil {
		return "*"
	}
	return f.pattern
}
