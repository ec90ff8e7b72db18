package moderator

import "regexp"

// RegexMatcher pairs a prohibited-content pattern with the severity of its
// violation: ForceConverge patterns end the discussion outright, others just
// drop the offending message (§4.8 step 6).
type RegexMatcher struct {
	*regexp.Regexp
	ForceConverge bool
}

// NewRegexMatcher compiles pattern, returning an error if it is not valid
// regex syntax.
func NewRegexMatcher(pattern string, forceConverge bool) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{Regexp: re, ForceConverge: forceConverge}, nil
}
