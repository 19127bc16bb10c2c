package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
	"github.com/cognicore/docprep/pkg/docprep/redact"
)

// Vocabulary is the boilerplate phrase list.
type Vocabulary struct {
	Phrases []Phrase `yaml:"phrases"`
}

// Phrase is one vocabulary entry.
type Phrase struct {
	Text     string   `yaml:"text"`
	Variants []string `yaml:"variants"`
	Category string   `yaml:"category"`
}

// DefaultPhrases are the greeting and closing lines removed when no
// vocabulary file is configured.
var DefaultPhrases = []Phrase{
	{Text: "Sehr geehrte Damen und Herren", Category: "greeting"},
	{Text: "Mit freundlichen Grüßen", Category: "closing"},
	{Text: "Beste Grüße", Category: "closing"},
	{Text: "Liebe Kolleginnen und Kollegen", Category: "greeting"},
}

// Entries converts the vocabulary to matcher entries.
func (v *Vocabulary) Entries() []ingest.PhraseEntry {
	entries := make([]ingest.PhraseEntry, 0, len(v.Phrases))
	for _, p := range v.Phrases {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		entries = append(entries, ingest.PhraseEntry{
			Canonical: p.Text,
			Category:  p.Category,
			Variants:  p.Variants,
		})
	}
	return entries
}

// LoadVocabulary loads phrases from a YAML file
func LoadVocabulary(path string) (*Vocabulary, error) {
	var v Vocabulary
	if err := loadYAML(path, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Blacklist is the forbidden-identifier list.
type Blacklist struct {
	Terms []string `yaml:"terms"`
}

// LoadBlacklist loads blacklist terms from a YAML file
func LoadBlacklist(path string) (*Blacklist, error) {
	var b Blacklist
	if err := loadYAML(path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Patterns is an ordered PII pattern list.
type Patterns struct {
	Patterns []PatternSpec `yaml:"patterns"`
}

// PatternSpec describes one PII pattern. MinDigits > 0 rejects matches with
// fewer digits or glued to a preceding word.
type PatternSpec struct {
	Label     string `yaml:"label"`
	Regex     string `yaml:"regex"`
	MinDigits int    `yaml:"min_digits"`
}

// Compile turns the specs into redact patterns, keeping their order.
func (p *Patterns) Compile() ([]redact.Pattern, error) {
	out := make([]redact.Pattern, 0, len(p.Patterns))
	for i, spec := range p.Patterns {
		if spec.Label == "" {
			return nil, fmt.Errorf("pattern %d: label is required: %w", i, internalerr.ErrInvalidConfig)
		}
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %v: %w", spec.Label, err, internalerr.ErrInvalidConfig)
		}
		pat := redact.Pattern{Label: strings.ToUpper(spec.Label), Regexp: re}
		if spec.MinDigits > 0 {
			pat.Accept = redact.MinDigitsAccept(spec.MinDigits)
		}
		out = append(out, pat)
	}
	return out, nil
}

// LoadPatterns loads PII patterns from a YAML file
func LoadPatterns(path string) (*Patterns, error) {
	var p Patterns
	if err := loadYAML(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Gazetteer lists known entity names: kind → canonical name → variants.
type Gazetteer struct {
	Entities map[string]map[string][]string `yaml:"entities"`
}

// Names converts the configured kinds to recognize kinds. Unknown kinds are
// rejected so a typo cannot silently disable redaction.
func (g *Gazetteer) Names() (map[recognize.Kind]map[string][]string, error) {
	names := make(map[recognize.Kind]map[string][]string, len(g.Entities))
	for label, byName := range g.Entities {
		kind := recognize.ParseKind(label)
		if kind == recognize.Other {
			return nil, fmt.Errorf("gazetteer kind %q: %w", label, internalerr.ErrInvalidConfig)
		}
		if names[kind] == nil {
			names[kind] = make(map[string][]string)
		}
		for name, variants := range byName {
			names[kind][name] = variants
		}
	}
	return names, nil
}

// LoadGazetteer loads entity names from a YAML file
func LoadGazetteer(path string) (*Gazetteer, error) {
	var g Gazetteer
	if err := loadYAML(path, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
