package ingest

import (
	"sort"
	"strings"
)

// PhraseEntry is one boilerplate phrase of the vocabulary.
type PhraseEntry struct {
	Canonical string
	Category  string
	Variants  []string
}

// Match is a phrase occurrence over a token slice, [Start, End) in token
// indices.
type Match struct {
	Start int
	End   int
	Entry PhraseEntry
}

// Len returns the match length in tokens.
func (m Match) Len() int { return m.End - m.Start }

// PhraseMatcher finds vocabulary phrases as contiguous token sequences.
type PhraseMatcher struct {
	tokenizer *Tokenizer
	dict      map[string]PhraseEntry // folded token sequence → entry
	maxLen    int
}

// NewPhraseMatcher tokenizes every canonical form and variant with tok and
// indexes them by their folded token sequence.
func NewPhraseMatcher(tok *Tokenizer, entries []PhraseEntry) *PhraseMatcher {
	dict := make(map[string]PhraseEntry)
	maxLen := 1
	add := func(phrase string, e PhraseEntry) {
		toks := tok.Tokenize(phrase)
		if len(toks) == 0 {
			return
		}
		key := tok.FoldAll(toks)
		if _, exists := dict[key]; !exists {
			dict[key] = e
		}
		if len(toks) > maxLen {
			maxLen = len(toks)
		}
	}
	for _, e := range entries {
		add(e.Canonical, e)
		for _, v := range e.Variants {
			add(v, e)
		}
	}
	return &PhraseMatcher{tokenizer: tok, dict: dict, maxLen: maxLen}
}

// Tokenizer returns the tokenizer the vocabulary was indexed with.
func (p *PhraseMatcher) Tokenizer() *Tokenizer { return p.tokenizer }

// FindAll returns every occurrence of every phrase, overlapping or not,
// ordered by start then length.
func (p *PhraseMatcher) FindAll(tokens []Token) []Match {
	if len(p.dict) == 0 {
		return nil
	}
	folded := make([]string, len(tokens))
	for i, tok := range tokens {
		folded[i] = p.tokenizer.Fold(tok.Text)
	}

	var matches []Match
	for i := range folded {
		maxPhrase := p.maxLen
		if remaining := len(folded) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := 1; n <= maxPhrase; n++ {
			key := strings.Join(folded[i:i+n], " ")
			if entry, ok := p.dict[key]; ok {
				matches = append(matches, Match{Start: i, End: i + n, Entry: entry})
			}
		}
	}
	return matches
}

// Find returns the non-overlapping subset of FindAll (see FilterOverlaps).
func (p *PhraseMatcher) Find(tokens []Token) []Match {
	return FilterOverlaps(p.FindAll(tokens))
}

// FilterOverlaps keeps the longest matches first, breaking ties by the
// earliest start, and drops anything overlapping an already kept match.
// The result is ordered by start.
func FilterOverlaps(matches []Match) []Match {
	if len(matches) == 0 {
		return nil
	}
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Len() != sorted[j].Len() {
			return sorted[i].Len() > sorted[j].Len()
		}
		return sorted[i].Start < sorted[j].Start
	})

	taken := make(map[int]struct{})
	var kept []Match
	for _, m := range sorted {
		overlaps := false
		for i := m.Start; i < m.End; i++ {
			if _, ok := taken[i]; ok {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		for i := m.Start; i < m.End; i++ {
			taken[i] = struct{}{}
		}
		kept = append(kept, m)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
