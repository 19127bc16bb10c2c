// Package recognize defines the entity-recognition capability the entity
// redactor consumes, plus two implementations: a dictionary gazetteer and a
// client for an external NER service.
package recognize

import (
	"context"
	"strings"
)

// Kind is an entity class.
type Kind string

const (
	Person       Kind = "PERSON"
	Organization Kind = "ORGANIZATION"
	Location     Kind = "LOCATION"
	Other        Kind = "OTHER"
)

// ParseKind maps the label sets common NER engines emit onto Kind.
func ParseKind(label string) Kind {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PER", "PERSON":
		return Person
	case "ORG", "ORGANIZATION", "ORGANISATION":
		return Organization
	case "LOC", "LOCATION", "GPE":
		return Location
	default:
		return Other
	}
}

// Span is an entity mention, [Start, End) in bytes of the analyzed text.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Recognizer finds entity mentions. Implementations need not be safe for
// concurrent use; every worker builds its own through a Factory.
type Recognizer interface {
	Entities(ctx context.Context, text string) ([]Span, error)
}

// Factory builds a fresh Recognizer.
type Factory func() (Recognizer, error)

// Nop recognizes nothing.
type Nop struct{}

// Entities implements Recognizer.
func (Nop) Entities(context.Context, string) ([]Span, error) { return nil, nil }
