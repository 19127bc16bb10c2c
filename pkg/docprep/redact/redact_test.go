package redact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
)

var commonPhrases = []ingest.PhraseEntry{
	{Canonical: "Sehr geehrte Damen und Herren", Category: "greeting"},
	{Canonical: "Mit freundlichen Grüßen", Category: "closing"},
	{Canonical: "Beste Grüße", Category: "closing"},
	{Canonical: "Liebe Kolleginnen und Kollegen", Category: "greeting"},
}

func phraseRedactor() *PhraseRedactor {
	return NewPhraseRedactor(ingest.NewPhraseMatcher(ingest.NewTokenizer(), commonPhrases))
}

func TestRemoveCommonPhrases(t *testing.T) {
	text := "Sehr geehrte Damen und Herren,\n\nDies ist ein Test.\n\nMit freundlichen Grüßen,\nTester"
	expected := "[REDACTED_PHRASE],\n\nDies ist ein Test.\n\n[REDACTED_PHRASE],\nTester"

	got, err := phraseRedactor().Redact(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestPhraseRedactionIsCaseInsensitiveAndKeepsSpacing(t *testing.T) {
	text := "MIT  freundlichen\tgrüßen!"
	got, _ := phraseRedactor().Redact(context.Background(), text)
	if got != "[REDACTED_PHRASE]!" {
		t.Errorf("Expected the whole phrase replaced, got %q", got)
	}
}

func TestPhraseRedactionRequiresWholeTokens(t *testing.T) {
	text := "Beste Grüßendorfer Straße"
	got, _ := phraseRedactor().Redact(context.Background(), text)
	if got != text {
		t.Errorf("Partial token must not match, got %q", got)
	}
}

func TestEmailRedaction(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())
	for _, email := range []string{"max.mustermann@example.com", "a_b+tag@mail.test.org", "jürgen@beispiel.de"} {
		text := "Schreiben Sie an " + email + ", danke."
		got, err := r.Redact(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(got, email) {
			t.Errorf("Email %s should be removed: %q", email, got)
		}
		if !strings.Contains(got, PatternSentinel(LabelEmail)) {
			t.Errorf("Expected email sentinel in %q", got)
		}
	}
}

func TestPhoneRedaction(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())
	cases := map[string]string{
		"Ruf an: +49 1234 567890 bitte": "Ruf an: [REDACTED_PHONE] bitte",
		"Tel. (030) 123456":             "Tel. [REDACTED_PHONE]",
		"Zentrale +49 (0)30 1234567":    "Zentrale [REDACTED_PHONE]",
		"Fax +49(0)89 987654.":          "Fax [REDACTED_PHONE].",
		"Seiten: 5, Jahr 2023":          "Seiten: 5, Jahr 2023",
		"Kundennr. AB1234567":           "Kundennr. AB1234567",
	}
	for in, want := range cases {
		got, _ := r.Redact(context.Background(), in)
		if got != want {
			t.Errorf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmailBeforePhone(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())
	got, _ := r.Redact(context.Background(), "Kontakt: 0301234567@fax.example.com")
	if got != "Kontakt: [REDACTED_EMAIL]" {
		t.Errorf("Email must be redacted as a whole before phone matching, got %q", got)
	}
}

func TestIsBlacklisted(t *testing.T) {
	bl := NewBlacklist([]string{"blacklisted@example.com"})
	if !IsBlacklisted("Contact me at blacklisted@example.com", bl) {
		t.Error("Blacklisted address should be detected")
	}
	if IsBlacklisted("Contact me at allowed@example.com", bl) {
		t.Error("Other address should not be blacklisted")
	}
	if !IsBlacklisted("CONTACT: BlackListed@Example.COM", bl) {
		t.Error("Blacklist check should be case-insensitive")
	}
}

func TestBlacklistIgnoresBlankTerms(t *testing.T) {
	bl := NewBlacklist([]string{"", "  ", "Spamuser@example.org"})
	if bl.Len() != 1 {
		t.Fatalf("Expected 1 term, got %d", bl.Len())
	}
	if !bl.Contains("spamuser@example.org") {
		t.Error("Terms should be stored lowercased")
	}
	if IsBlacklisted("anything", NewBlacklist(nil)) {
		t.Error("Empty blacklist matches nothing")
	}
}

type fixedRecognizer struct {
	spans []recognize.Span
	err   error
}

func (f fixedRecognizer) Entities(context.Context, string) ([]recognize.Span, error) {
	return f.spans, f.err
}

func TestEntityRedactionIdentity(t *testing.T) {
	texts := []string{
		"",
		"  Dies ist ein Test.\n\n  Ende  ",
		"[REDACTED_PHRASE],\n\nKeine Namen hier.\t",
	}
	r := NewEntityRedactor(fixedRecognizer{})
	for _, text := range texts {
		got, err := r.Redact(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		if got != text {
			t.Errorf("Text without entities must round-trip: %q != %q", got, text)
		}
	}
}

func TestEntityRedactionRemovesPersonName(t *testing.T) {
	text := "Mein Name ist Max Mustermann und ich wohne in Berlin. Wetter: gut"
	g := recognize.NewGazetteer(map[recognize.Kind]map[string][]string{
		recognize.Person:   {"Max Mustermann": nil},
		recognize.Location: {"Berlin": nil},
	})
	got, err := NewEntityRedactor(g).Redact(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	expected := "Mein Name ist [REDACTED] [REDACTED] und ich wohne in [REDACTED]. Wetter: gut"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestEntityRedactionIgnoresOtherKinds(t *testing.T) {
	text := "Am Montag kommt ACME."
	rec := fixedRecognizer{spans: []recognize.Span{
		{Start: 3, End: 9, Kind: recognize.Other},
		{Start: 16, End: 20, Kind: recognize.Organization},
	}}
	got, _ := NewEntityRedactor(rec).Redact(context.Background(), text)
	if got != "Am Montag kommt [REDACTED]." {
		t.Errorf("Only organization should be redacted, got %q", got)
	}
}

func TestEntityRedactionPropagatesRecognizerError(t *testing.T) {
	boom := errors.New("model crashed")
	_, err := NewEntityRedactor(fixedRecognizer{err: boom}).Redact(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("Expected recognizer error, got %v", err)
	}
}

func TestChainOrder(t *testing.T) {
	g := recognize.NewGazetteer(map[recognize.Kind]map[string][]string{recognize.Person: {"Max Mustermann": nil}})
	chain := Chain{phraseRedactor(), NewPatternRedactor(DefaultPatterns()), NewEntityRedactor(g)}

	text := "Sehr geehrte Damen und Herren,\nich bin Max Mustermann, max.mustermann@example.com, +49 1234 567890.\nBeste Grüße"
	got, err := chain.Redact(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	for _, leaked := range []string{"Sehr geehrte", "Beste Grüße", "max.mustermann@example.com", "567890", "Max Mustermann"} {
		if strings.Contains(got, leaked) {
			t.Errorf("%q leaked into %q", leaked, got)
		}
	}
	if !strings.Contains(got, "[REDACTED_EMAIL]") || !strings.Contains(got, "[REDACTED_PHONE]") {
		t.Errorf("Expected PII sentinels in %q", got)
	}
}
