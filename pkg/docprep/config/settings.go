package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Segment formats.
const (
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

// Defaults applied by Settings.ApplyDefaults.
const (
	DefaultChunkSize         = 100
	DefaultRecognizerTimeout = 15 * time.Second
	DefaultLogEnv            = "local"
	DefaultLogLevel          = "info"
)

// Settings is the run configuration, read from docprep.yaml and flags.
type Settings struct {
	SourceDir      string             `mapstructure:"source_dir"`
	OutputDir      string             `mapstructure:"output_dir"`
	Period         string             `mapstructure:"period"`
	Force          bool               `mapstructure:"force"`
	ChunkSize      int                `mapstructure:"chunk_size"`
	Parallel       bool               `mapstructure:"parallel"`
	Workers        int                `mapstructure:"workers"`
	SegmentFormat  string             `mapstructure:"segment_format"`
	VocabularyPath string             `mapstructure:"vocabulary_path"`
	BlacklistPath  string             `mapstructure:"blacklist_path"`
	PatternsPath   string             `mapstructure:"patterns_path"`
	Recognizer     RecognizerSettings `mapstructure:"recognizer"`
	Logging        LoggingSettings    `mapstructure:"logging"`
	MetricsPath    string             `mapstructure:"metrics_path"`
}

// RecognizerSettings selects and configures the entity recognizer.
type RecognizerSettings struct {
	Kind          string `mapstructure:"kind"` // gazetteer (default), http, none
	GazetteerPath string `mapstructure:"gazetteer_path"`
	URL           string `mapstructure:"url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
}

// LoggingSettings holds logger settings.
type LoggingSettings struct {
	Env   string `mapstructure:"env"`   // local, dev, prod
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// ApplyDefaults fills unset fields.
func (s *Settings) ApplyDefaults() {
	if s.ChunkSize == 0 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.SegmentFormat == "" {
		s.SegmentFormat = FormatParquet
	}
	if s.Period == "" {
		s.Period = time.Now().Format("2006-01")
	}
	if s.Recognizer.Kind == "" {
		s.Recognizer.Kind = RecognizerGazetteer
	}
	if s.Recognizer.TimeoutSec == 0 {
		s.Recognizer.TimeoutSec = int(DefaultRecognizerTimeout / time.Second)
	}
	if s.Logging.Env == "" {
		s.Logging.Env = DefaultLogEnv
	}
	if s.Logging.Level == "" {
		s.Logging.Level = DefaultLogLevel
	}
}

// Validate checks the settings after defaults are applied.
func (s *Settings) Validate() error {
	var problems []string
	if s.SourceDir == "" {
		problems = append(problems, "source_dir is required")
	}
	if s.OutputDir == "" {
		problems = append(problems, "output_dir is required")
	}
	if s.ChunkSize < 1 {
		problems = append(problems, fmt.Sprintf("chunk_size must be >= 1, got %d", s.ChunkSize))
	}
	if s.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be >= 1, got %d", s.Workers))
	}
	switch s.SegmentFormat {
	case FormatParquet, FormatSQLite:
	default:
		problems = append(problems, fmt.Sprintf("unknown segment_format %q", s.SegmentFormat))
	}
	switch s.Recognizer.Kind {
	case RecognizerGazetteer, RecognizerNone:
	case RecognizerHTTP:
		if s.Recognizer.URL == "" {
			problems = append(problems, "recognizer.url is required for the http recognizer")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown recognizer.kind %q", s.Recognizer.Kind))
	}
	if strings.ContainsAny(s.Period, `/\`) {
		problems = append(problems, fmt.Sprintf("period %q must not contain path separators", s.Period))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, "; "), internalerr.ErrInvalidConfig)
	}
	return nil
}

// Loader builds the component loader for these settings.
func (s *Settings) Loader() *Loader {
	return &Loader{
		VocabularyPath: s.VocabularyPath,
		BlacklistPath:  s.BlacklistPath,
		PatternsPath:   s.PatternsPath,
		Recognizer:     s.Recognizer,
	}
}

// EffectiveWorkers is 1 unless parallel processing is enabled.
func (s *Settings) EffectiveWorkers() int {
	if !s.Parallel || s.Workers < 1 {
		return 1
	}
	return s.Workers
}
