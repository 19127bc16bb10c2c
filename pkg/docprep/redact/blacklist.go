package redact

import (
	"sort"
	"strings"
)

// Blacklist holds forbidden identifiers, typically email addresses of
// people who must not appear in the dataset. Terms are stored lowercased.
type Blacklist struct {
	terms map[string]struct{}
}

// NewBlacklist creates a blacklist; blank terms are ignored.
func NewBlacklist(terms []string) *Blacklist {
	b := &Blacklist{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		b.Add(t)
	}
	return b
}

// Add adds a term.
func (b *Blacklist) Add(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	b.terms[term] = struct{}{}
}

// Contains reports whether term itself is blacklisted.
func (b *Blacklist) Contains(term string) bool {
	_, ok := b.terms[strings.ToLower(strings.TrimSpace(term))]
	return ok
}

// Len returns the number of terms.
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.terms)
}

// Terms returns all terms, sorted.
func (b *Blacklist) Terms() []string {
	result := make([]string, 0, len(b.terms))
	for t := range b.terms {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}

// Match returns the first term (in sorted order) contained in text,
// compared case-insensitively.
func (b *Blacklist) Match(text string) (string, bool) {
	if b.Len() == 0 {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, term := range b.Terms() {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

// IsBlacklisted reports whether text mentions any blacklisted term. It must
// see the raw text: a redaction pass could mask the very term it looks for.
func IsBlacklisted(text string, b *Blacklist) bool {
	_, hit := b.Match(text)
	return hit
}
