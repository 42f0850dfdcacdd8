package entity

import (
	"fmt"
	"regexp"
)

// ScopeKey partitions the vector index. All retrieval for a turn is filtered
// to exactly one scope key; it is passed as a typed value and never built by
// interpolating raw input into a filter expression.
type ScopeKey string

const maxScopeKeyLen = 128

var scopeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

func (s ScopeKey) String() string {
	return string(s)
}

func (s ScopeKey) Validate() error {
	if s == "" {
		return fmt.Errorf("scope key is empty")
	}
	if len(s) > maxScopeKeyLen {
		return fmt.Errorf("scope key exceeds %d characters", maxScopeKeyLen)
	}
	if !scopeKeyPattern.MatchString(string(s)) {
		return fmt.Errorf("scope key contains invalid characters")
	}
	return nil
}
