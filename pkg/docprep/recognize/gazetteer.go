package recognize

import (
	"context"
	"sort"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
)

// Gazetteer recognizes entities by looking up known names, matched as
// case-insensitive token sequences.
type Gazetteer struct {
	tokenizer *ingest.Tokenizer
	matcher   *ingest.PhraseMatcher
}

// NewGazetteer indexes names by kind: kind → canonical name → variants.
// The canonical name itself is matched as well.
func NewGazetteer(names map[Kind]map[string][]string) *Gazetteer {
	tok := ingest.NewTokenizer()
	var entries []ingest.PhraseEntry
	for kind, byName := range names {
		for name, variants := range byName {
			entries = append(entries, ingest.PhraseEntry{
				Canonical: name,
				Category:  string(kind),
				Variants:  variants,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Canonical < entries[j].Canonical
	})
	return &Gazetteer{tokenizer: tok, matcher: ingest.NewPhraseMatcher(tok, entries)}
}

// Entities implements Recognizer.
func (g *Gazetteer) Entities(_ context.Context, text string) ([]Span, error) {
	tokens := g.tokenizer.Tokenize(text)
	matches := g.matcher.Find(tokens)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{
			Start: tokens[m.Start].Start,
			End:   tokens[m.End-1].End,
			Kind:  ParseKind(m.Entry.Category),
		})
	}
	return spans, nil
}

// GazetteerFactory returns a Factory building independent gazetteers over
// the same name lists.
func GazetteerFactory(names map[Kind]map[string][]string) Factory {
	return func() (Recognizer, error) {
		return NewGazetteer(names), nil
	}
}
