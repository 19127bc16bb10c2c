package redact

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
)

// RedactedKinds are the entity classes EntityRedactor removes.
var RedactedKinds = []recognize.Kind{recognize.Person, recognize.Organization, recognize.Location}

// EntityRedactor replaces every token inside a person, organization or
// location mention with EntitySentinel.
type EntityRedactor struct {
	recognizer recognize.Recognizer
	tokenizer  *ingest.Tokenizer
	kinds      map[recognize.Kind]bool
}

// NewEntityRedactor wraps a recognizer. It is as goroutine-safe as the
// recognizer, and its tokenizer is not: build one per worker.
func NewEntityRedactor(rec recognize.Recognizer) *EntityRedactor {
	kinds := make(map[recognize.Kind]bool, len(RedactedKinds))
	for _, k := range RedactedKinds {
		kinds[k] = true
	}
	return &EntityRedactor{recognizer: rec, tokenizer: ingest.NewTokenizer(), kinds: kinds}
}

// Redact implements Redactor. Tokens outside entity mentions are emitted
// with their trailing whitespace untouched, so text without entities comes
// back byte for byte. A redacted token keeps its trailing whitespace too.
func (r *EntityRedactor) Redact(ctx context.Context, text string) (string, error) {
	spans, err := r.recognizer.Entities(ctx, text)
	if err != nil {
		return "", fmt.Errorf("recognize entities: %w", err)
	}

	var keep []recognize.Span
	for _, s := range spans {
		if r.kinds[s.Kind] {
			keep = append(keep, s)
		}
	}
	if len(keep) == 0 {
		return text, nil
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i].Start < keep[j].Start })

	tokens := r.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	b.WriteString(text[:tokens[0].Start])
	si := 0
	for _, tok := range tokens {
		for si < len(keep) && keep[si].End <= tok.Start {
			si++
		}
		if insideAny(tok, keep[si:]) {
			b.WriteString(EntitySentinel)
		} else {
			b.WriteString(tok.Text)
		}
		b.WriteString(tok.WS)
	}
	return b.String(), nil
}

// insideAny reports whether tok overlaps one of spans. spans are sorted by
// start and none of them ends before tok.
func insideAny(tok ingest.Token, spans []recognize.Span) bool {
	for _, s := range spans {
		if s.Start >= tok.End {
			return false
		}
		if s.End > tok.Start {
			return true
		}
	}
	return false
}
