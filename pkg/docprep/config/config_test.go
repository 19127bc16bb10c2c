package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVocabulary(t *testing.T) {
	path := writeFile(t, "phrases.yaml", `phrases:
  - text: Sehr geehrte Damen und Herren
    category: greeting
    variants:
      - Sehr geehrte Frau
  - text: Mit freundlichen Grüßen
    category: closing
  - text: "   "
`)

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("Failed to load vocabulary: %v", err)
	}
	if len(v.Phrases) != 3 {
		t.Fatalf("Expected 3 phrases, got %d", len(v.Phrases))
	}

	entries := v.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected blank phrase to be skipped, got %d entries", len(entries))
	}
	if entries[0].Canonical != "Sehr geehrte Damen und Herren" || entries[0].Category != "greeting" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if len(entries[0].Variants) != 1 {
		t.Errorf("Expected 1 variant, got %v", entries[0].Variants)
	}
}

func TestLoadBlacklist(t *testing.T) {
	path := writeFile(t, "blacklist.yaml", `terms:
  - ACME-4711
  - geheim
`)

	b, err := LoadBlacklist(path)
	if err != nil {
		t.Fatalf("Failed to load blacklist: %v", err)
	}
	if len(b.Terms) != 2 {
		t.Errorf("Expected 2 terms, got %d", len(b.Terms))
	}
}

func TestPatternsCompile(t *testing.T) {
	path := writeFile(t, "patterns.yaml", `patterns:
  - label: email
    regex: '[a-z]+@[a-z]+\.de'
  - label: IBAN
    regex: 'DE\d{20}'
    min_digits: 20
`)

	p, err := LoadPatterns(path)
	if err != nil {
		t.Fatalf("Failed to load patterns: %v", err)
	}
	compiled, err := p.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(compiled) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(compiled))
	}
	if compiled[0].Label != "EMAIL" {
		t.Errorf("Expected label upper-cased, got %q", compiled[0].Label)
	}
	if compiled[0].Accept != nil {
		t.Error("Expected no veto without min_digits")
	}
	if compiled[1].Accept == nil {
		t.Error("Expected veto for min_digits")
	}
}

func TestPatternsCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		spec PatternSpec
	}{
		{"missing label", PatternSpec{Regex: `\d+`}},
		{"bad regex", PatternSpec{Label: "X", Regex: `(`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Patterns{Patterns: []PatternSpec{tt.spec}}
			_, err := p.Compile()
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadGazetteer(t *testing.T) {
	path := writeFile(t, "entities.yaml", `entities:
  PER:
    Max Mustermann:
      - M. Mustermann
  ORG:
    Beispiel GmbH: []
  LOC:
    Berlin: []
`)

	g, err := LoadGazetteer(path)
	if err != nil {
		t.Fatalf("Failed to load gazetteer: %v", err)
	}
	names, err := g.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if got := names[recognize.Person]["Max Mustermann"]; len(got) != 1 {
		t.Errorf("Expected person variant, got %v", got)
	}
	if _, ok := names[recognize.Organization]["Beispiel GmbH"]; !ok {
		t.Error("Expected organization entry")
	}
	if _, ok := names[recognize.Location]["Berlin"]; !ok {
		t.Error("Expected location entry")
	}
}

func TestGazetteerUnknownKind(t *testing.T) {
	g := &Gazetteer{Entities: map[string]map[string][]string{"PERSN": {"Max": nil}}}
	if _, err := g.Names(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	if _, err := LoadBlacklist(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	path := writeFile(t, "broken.yaml", "terms: [unclosed")
	if _, err := LoadBlacklist(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{SourceDir: "in", OutputDir: "out"}
	s.ApplyDefaults()

	if s.ChunkSize != DefaultChunkSize {
		t.Errorf("Expected chunk size %d, got %d", DefaultChunkSize, s.ChunkSize)
	}
	if s.Workers < 1 {
		t.Errorf("Expected workers >= 1, got %d", s.Workers)
	}
	if s.SegmentFormat != FormatParquet {
		t.Errorf("Expected parquet default, got %q", s.SegmentFormat)
	}
	if s.Recognizer.Kind != RecognizerGazetteer || s.Recognizer.TimeoutSec != 15 {
		t.Errorf("Unexpected recognizer defaults: %+v", s.Recognizer)
	}
	if s.Period == "" {
		t.Error("Expected period default")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
	if s.EffectiveWorkers() != 1 {
		t.Errorf("Expected 1 worker without parallel, got %d", s.EffectiveWorkers())
	}
	s.Parallel = true
	if s.EffectiveWorkers() != s.Workers {
		t.Errorf("Expected %d workers with parallel, got %d", s.Workers, s.EffectiveWorkers())
	}
}

func TestSettingsValidate(t *testing.T) {
	base := func() Settings {
		s := Settings{SourceDir: "in", OutputDir: "out", Period: "2024-05"}
		s.ApplyDefaults()
		return s
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no source", func(s *Settings) { s.SourceDir = "" }},
		{"no output", func(s *Settings) { s.OutputDir = "" }},
		{"negative chunk", func(s *Settings) { s.ChunkSize = -1 }},
		{"bad format", func(s *Settings) { s.SegmentFormat = "csv" }},
		{"bad recognizer", func(s *Settings) { s.Recognizer.Kind = "spacy" }},
		{"http without url", func(s *Settings) { s.Recognizer.Kind = RecognizerHTTP }},
		{"period with separator", func(s *Settings) { s.Period = "2024/05" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
