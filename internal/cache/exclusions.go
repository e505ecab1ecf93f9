package cache

import (
	"fmt"
	"regexp"
)

// ExclusionList names models whose replies are never cached: exact names
// plus regular expressions. A nil *ExclusionList matches nothing.
type ExclusionList struct {
	exact    map[string]struct{}
	patterns []*regexp.Regexp
}

// NewExclusionList compiles the rules. Empty strings are skipped; an invalid
// pattern is an error so misconfiguration surfaces at startup.
func NewExclusionList(exact, patterns []string) (*ExclusionList, error) {
	el := &ExclusionList{
		exact: make(map[string]struct{}, len(exact)),
	}

	for _, e := range exact {
		if e != "" {
			el.exact[e] = struct{}{}
		}
	}

	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("cache: exclusion pattern %q: %w", p, err)
		}
		el.patterns = append(el.patterns, re)
	}

	return el, nil
}

// Matches reports whether model is excluded.
func (el *ExclusionList) Matches(model string) bool {
	if el == nil {
		return false
	}
	if _, ok := el.exact[model]; ok {
		return true
	}
	for _, re := range el.patterns {
		if re.MatchString(model) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any of names is excluded. The chat client
// passes both the friendly alias and the resolved id.
func (el *ExclusionList) MatchesAny(names ...string) bool {
	for _, n := range names {
		if el.Matches(n) {
			return true
		}
	}
	return false
}

// Len returns the number of configured rules.
func (el *ExclusionList) Len() int {
	if el == nil {
		return 0
	}
	return len(el.exact) + len(el.patterns)
}
