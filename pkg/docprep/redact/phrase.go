package redact

import (
	"context"
	"strings"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
)

// PhraseFinder locates vocabulary phrases in a token stream and returns
// non-overlapping matches ordered by start.
type PhraseFinder interface {
	Find(tokens []ingest.Token) []ingest.Match
}

// PhraseRedactor replaces boilerplate phrases with PhraseSentinel.
type PhraseRedactor struct {
	tokenizer *ingest.Tokenizer
	finder    PhraseFinder
}

// NewPhraseRedactor uses the matcher's own tokenizer so text and vocabulary
// are split the same way.
func NewPhraseRedactor(m *ingest.PhraseMatcher) *PhraseRedactor {
	return &PhraseRedactor{tokenizer: m.Tokenizer(), finder: m}
}

// Redact implements Redactor. Only the matched bytes change; surrounding
// whitespace and punctuation are copied verbatim.
func (r *PhraseRedactor) Redact(_ context.Context, text string) (string, error) {
	tokens := r.tokenizer.Tokenize(text)
	matches := r.finder.Find(tokens)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, m := range matches {
		start, end := tokens[m.Start].Start, tokens[m.End-1].End
		if start < pos {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(PhraseSentinel)
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
