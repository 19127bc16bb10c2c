package redact

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pattern is a labeled PII matcher. Accept, when set, can veto a match
// given its surrounding text.
type Pattern struct {
	Label  string
	Regexp *regexp.Regexp
	Accept func(text string, start, end int) bool
}

// Pattern labels of the built-in set.
const (
	LabelEmail = "EMAIL"
	LabelPhone = "PHONE"
)

var (
	emailRegexp = regexp.MustCompile(`[\p{L}\p{N}_.%+-]+@[\p{L}\p{N}_-]+(?:\.[\p{L}\p{N}_-]+)*\.\p{L}{2,}`)
	phoneRegexp = regexp.MustCompile(`(?:\+?\d{1,3}[ \t]?\(\d{1,4}\)[ \t]?|\+?\d{1,3}[-. \t/]?|\(\d{1,4}\)[ \t]?)?\d{1,4}[-. \t/]?\d{1,4}[-. \t/]?\d{1,9}\b`)
)

// MinPhoneDigits keeps years, page counts and short amounts out of the
// phone pattern.
const MinPhoneDigits = 6

// DefaultPatterns returns EMAIL then PHONE. The order matters: an email
// address is replaced before the digit-heavy phone pattern can split it.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Label: LabelEmail, Regexp: emailRegexp},
		{Label: LabelPhone, Regexp: phoneRegexp, Accept: MinDigitsAccept(MinPhoneDigits)},
	}
}

// MinDigitsAccept vetoes matches glued to a preceding word character or
// carrying fewer than n digits.
func MinDigitsAccept(n int) func(text string, start, end int) bool {
	return func(text string, start, end int) bool {
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == '_' {
				return false
			}
		}
		digits := 0
		for _, r := range text[start:end] {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		return digits >= n
	}
}

// PatternRedactor substitutes every accepted match of each pattern with
// PatternSentinel(label), pattern by pattern in list order.
type PatternRedactor struct {
	patterns []Pattern
}

// NewPatternRedactor keeps the given order.
func NewPatternRedactor(patterns []Pattern) *PatternRedactor {
	return &PatternRedactor{patterns: patterns}
}

// Redact implements Redactor.
func (r *PatternRedactor) Redact(_ context.Context, text string) (string, error) {
	for _, p := range r.patterns {
		text = replacePattern(text, p)
	}
	return text, nil
}

func replacePattern(text string, p Pattern) string {
	locs := p.Regexp.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	sentinel := PatternSentinel(p.Label)

	var b strings.Builder
	pos := 0
	for _, loc := range locs {
		if p.Accept != nil && !p.Accept(text, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[pos:loc[0]])
		b.WriteString(sentinel)
		pos = loc[1]
	}
	if pos == 0 && b.Len() == 0 {
		return text
	}
	b.WriteString(text[pos:])
	return b.String()
}
