// Package redact implements the layered text anonymization: boilerplate
// phrases, structured PII patterns and recognized entities, plus the
// blacklist exclusion check that runs before any of them.
package redact

import "context"

// Sentinels substituted for redacted content.
const (
	PhraseSentinel = "[REDACTED_PHRASE]"
	EntitySentinel = "[REDACTED]"
)

// PatternSentinel returns the sentinel for a PII pattern label.
func PatternSentinel(label string) string {
	return "[REDACTED_" + label + "]"
}

// Redactor rewrites text, replacing what it recognizes with a sentinel.
type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
}

// Chain applies redactors in order, each to the previous one's output.
type Chain []Redactor

// Redact implements Redactor.
func (c Chain) Redact(ctx context.Context, text string) (string, error) {
	var err error
	for _, r := range c {
		if text, err = r.Redact(ctx, text); err != nil {
			return "", err
		}
	}
	return text, nil
}
