package core

import "strings"

// DefaultSuffix is the difficulty suffix used when none is configured. Three
// hex characters put the expected search length at 16^3 attempts.
const DefaultSuffix = "000"

// HashPredicate decides whether a block hash satisfies the difficulty rule.
// The node's nonce search runs until the predicate admits a hash, so the rule
// can be swapped without touching the mining loop.
type HashPredicate interface {
	Admits(hash string) bool
}

// SuffixPredicate admits hashes ending in a fixed hex suffix.
type SuffixPredicate struct {
	Suffix string
}

// NewSuffixPredicate returns a predicate for the given suffix, falling back
// to DefaultSuffix when it is empty.
func NewSuffixPredicate(suffix string) SuffixPredicate {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return SuffixPredicate{Suffix: suffix}
}

// Admits reports whether hash ends in the configured suffix.
func (p SuffixPredicate) Admits(hash string) bool {
	return strings.HasSuffix(hash, p.Suffix)
}

// PrefixPredicate admits hashes beginning with a fixed hex prefix.
type PrefixPredicate struct {
	Prefix string
}

// Admits reports whether hash starts with the configured prefix.
func (p PrefixPredicate) Admits(hash string) bool {
	return strings.HasPrefix(hash, p.Prefix)
}

// PredicateFunc adapts a plain function to the HashPredicate interface.
type PredicateFunc func(hash string) bool

// Admits calls f(hash).
func (f PredicateFunc) Admits(hash string) bool {
	return f(hash)
}
