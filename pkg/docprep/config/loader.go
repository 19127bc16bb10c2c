package config

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
	"github.com/cognicore/docprep/pkg/docprep/redact"
)

// Recognizer kinds.
const (
	RecognizerGazetteer = "gazetteer"
	RecognizerHTTP      = "http"
	RecognizerNone      = "none"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	VocabularyPath string
	BlacklistPath  string
	PatternsPath   string
	Recognizer     RecognizerSettings
}

// Components holds the read-only configuration every worker receives.
// Phrases and patterns are data, not matchers: each worker builds its own
// matcher and recognizer from them.
type Components struct {
	Phrases     []ingest.PhraseEntry
	Blacklist   *redact.Blacklist
	Patterns    []redact.Pattern
	Recognizers recognize.Factory
}

// Load reads all configuration files and returns initialized components.
// An empty path selects the built-in default for that component.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.VocabularyPath != "" {
		vocab, err := LoadVocabulary(l.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		comp.Phrases = vocab.Entries()
	} else {
		comp.Phrases = (&Vocabulary{Phrases: DefaultPhrases}).Entries()
	}

	if l.BlacklistPath != "" {
		bl, err := LoadBlacklist(l.BlacklistPath)
		if err != nil {
			return nil, fmt.Errorf("load blacklist: %w", err)
		}
		comp.Blacklist = redact.NewBlacklist(bl.Terms)
	} else {
		comp.Blacklist = redact.NewBlacklist(nil)
	}

	if l.PatternsPath != "" {
		pats, err := LoadPatterns(l.PatternsPath)
		if err != nil {
			return nil, fmt.Errorf("load patterns: %w", err)
		}
		compiled, err := pats.Compile()
		if err != nil {
			return nil, fmt.Errorf("compile patterns: %w", err)
		}
		comp.Patterns = compiled
	} else {
		comp.Patterns = redact.DefaultPatterns()
	}

	factory, err := l.recognizerFactory()
	if err != nil {
		return nil, fmt.Errorf("recognizer: %w", err)
	}
	comp.Recognizers = factory

	return comp, nil
}

func (l *Loader) recognizerFactory() (recognize.Factory, error) {
	switch l.Recognizer.Kind {
	case "", RecognizerGazetteer:
		if l.Recognizer.GazetteerPath == "" {
			return recognize.GazetteerFactory(nil), nil
		}
		gaz, err := LoadGazetteer(l.Recognizer.GazetteerPath)
		if err != nil {
			return nil, fmt.Errorf("load gazetteer: %v: %w", err, internalerr.ErrRecognizer)
		}
		names, err := gaz.Names()
		if err != nil {
			return nil, err
		}
		return recognize.GazetteerFactory(names), nil
	case RecognizerHTTP:
		timeout := time.Duration(l.Recognizer.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = DefaultRecognizerTimeout
		}
		factory := recognize.HTTPFactory(l.Recognizer.URL, l.Recognizer.APIKey, timeout)
		probe, err := factory()
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := probe.(*recognize.HTTPClient).Ping(ctx); err != nil {
			return nil, err
		}
		return factory, nil
	case RecognizerNone:
		return func() (recognize.Recognizer, error) { return recognize.Nop{}, nil }, nil
	default:
		return nil, fmt.Errorf("unknown recognizer kind %q: %w", l.Recognizer.Kind, internalerr.ErrInvalidConfig)
	}
}
