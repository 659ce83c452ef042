// Package ignore compiles user-supplied ignore patterns into a matcher over
// short (session-base-relative) paths.
package ignore

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// defaultGitPattern is prepended when the user supplies no patterns of
// their own.
const defaultGitPattern = `^\.git(?:/[^/]+)*$`

// bindrsDirPattern is always appended so the session's own log/state
// directory never round-trips through sync.
const bindrsDirPattern = `^\.bindrs.*$`

// Set is an immutable compiled collection of ignore patterns.
type Set struct {
	patterns []string
	regexes  []*regexp.Regexp
}

// Compile builds a Set from user patterns. An empty input list gets the
// default ".git" exclusion; ".bindrs*" is always added. Any pattern not
// already anchored with "^...$" is auto-wrapped as "^PATTERN(?:/[^/]+)*$"
// so that naming a directory also excludes its descendants.
func Compile(userPatterns []string) (*Set, error) {
	patterns := make([]string, 0, len(userPatterns)+2)

	if len(userPatterns) == 0 {
		patterns = append(patterns, defaultGitPattern)
	} else {
		patterns = append(patterns, userPatterns...)
	}
	patterns = append(patterns, bindrsDirPattern)

	set := &Set{patterns: make([]string, len(patterns))}
	set.regexes = make([]*regexp.Regexp, len(patterns))

	for i, raw := range patterns {
		anchored := raw
		if !(strings.HasPrefix(anchored, "^") && strings.HasSuffix(anchored, "$")) {
			anchored = "^" + anchored + `(?:/[^/]+)*$`
		}

		re, err := regexp.Compile(anchored)
		if err != nil {
			return nil, errors.Wrapf(err, "provided ignore pattern failed to compile: %q", raw)
		}

		set.patterns[i] = anchored
		set.regexes[i] = re
	}

	return set, nil
}

// Matches reports whether shortPath (relative to the session base
// directory, using '/' separators) matches any pattern in the set.
func (s *Set) Matches(shortPath string) bool {
	for _, re := range s.regexes {
		if re.MatchString(shortPath) {
			return true
		}
	}
	return false
}

// Patterns returns the fully anchored pattern strings, e.g. for passing to
// the slave as --ignore arguments in internal/bootstrap.
func (s *Set) Patterns() []string {
	return append([]string(nil), s.patterns...)
}
