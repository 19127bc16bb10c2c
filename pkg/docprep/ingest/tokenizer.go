package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token is a slice of the source text with its byte offsets.
// Text == src[Start:End]; WS is the whitespace between End and the next token.
type Token struct {
	Text  string
	Start int
	End   int
	WS    string
}

// Tokenizer splits text into word and punctuation tokens while keeping
// every byte of the source addressable, so callers can rebuild the input
// from the token stream.
//
// A Tokenizer holds a case folder and must not be shared between goroutines.
type Tokenizer struct {
	folder cases.Caser
}

// NewTokenizer creates a tokenizer with Unicode case folding.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{folder: cases.Fold()}
}

// Tokenize returns the tokens of text in order.
// Words are runs of letters, digits, marks and underscores; a hyphen or
// apostrophe joins two word runs ("Hans-Peter"). Every other non-space rune
// is a token of its own. Whitespace is never a token.
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := i
		if isWordRune(r) {
			i += size
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if isWordRune(r) {
					i += size
					continue
				}
				if (r == '-' || r == '\'') && i+size < len(text) {
					next, _ := utf8.DecodeRuneInString(text[i+size:])
					if isWordRune(next) {
						i += size
						continue
					}
				}
				break
			}
		} else {
			i += size
		}
		tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
	}

	for k := range tokens {
		end := len(text)
		if k+1 < len(tokens) {
			end = tokens[k+1].Start
		}
		tokens[k].WS = text[tokens[k].End:end]
	}
	return tokens
}

// Fold normalizes a token for case-insensitive comparison (NFC, then
// Unicode case folding, so "GRÜSSEN" and "Grüßen" compare equal).
func (t *Tokenizer) Fold(s string) string {
	return t.folder.String(norm.NFC.String(s))
}

// FoldAll folds every token text and joins them with single spaces.
func (t *Tokenizer) FoldAll(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = t.Fold(tok.Text)
	}
	return strings.Join(parts, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_'
}
