// Package docprep turns batch archives of scanned documents into anonymized,
// schema-checked segments: extract, discover index files, then redact and
// persist them chunk by chunk.
package docprep

import (
	"context"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/docprep/internal/logger"
	"github.com/cognicore/docprep/internal/metrics"
	"github.com/cognicore/docprep/pkg/docprep/archive"
	"github.com/cognicore/docprep/pkg/docprep/config"
	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/pipeline"
	"github.com/cognicore/docprep/pkg/docprep/segment"
	"github.com/cognicore/docprep/pkg/docprep/segment/parquet"
	"github.com/cognicore/docprep/pkg/docprep/segment/sqlite"
)

// Preprocessor is the run facade.
type Preprocessor struct {
	settings   config.Settings
	components *config.Components
	writer     segment.Writer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Options configures a Preprocessor.
type Options struct {
	Settings config.Settings
	Logger   *zap.Logger
	// Metrics defaults to a fresh registry.
	Metrics *metrics.Metrics
	// Writer overrides the writer selected by Settings.SegmentFormat.
	Writer segment.Writer
	// Components overrides loading them from the configured files.
	Components *config.Components
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Period      string
	Archives    archive.Report
	Documents   int
	Chunks      []pipeline.ChunkResult
	Written     int
	Skipped     int
	Blacklisted int
	Failed      int // chunks whose segment is missing or stale
	Duration    time.Duration
}

// DropRatio is the share of blacklisted documents over the whole run.
func (s Summary) DropRatio() float64 {
	if s.Documents == 0 {
		return 0
	}
	return float64(s.Blacklisted) / float64(s.Documents)
}

// New validates the settings and loads every configured component. A
// recognizer that cannot be reached fails here, before any work starts.
func New(opts Options) (*Preprocessor, error) {
	s := opts.Settings
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	comp := opts.Components
	if comp == nil {
		var err error
		if comp, err = s.Loader().Load(); err != nil {
			return nil, err
		}
	}

	w := opts.Writer
	if w == nil {
		var err error
		if w, err = NewWriter(s.SegmentFormat, PeriodDir(s.OutputDir, s.Period)); err != nil {
			return nil, err
		}
	}

	return &Preprocessor{settings: s, components: comp, writer: w, logger: log, metrics: m}, nil
}

// Settings returns the effective settings, defaults applied.
func (p *Preprocessor) Settings() config.Settings { return p.settings }

// NewWriter returns the segment writer for a format.
func NewWriter(format, outputDir string) (segment.Writer, error) {
	switch format {
	case config.FormatParquet, "":
		return parquet.NewWriter(outputDir), nil
	case config.FormatSQLite:
		return sqlite.NewWriter(outputDir), nil
	default:
		return nil, fmt.Errorf("unknown segment format %q: %w", format, internalerr.ErrInvalidConfig)
	}
}

// PeriodDir is the output directory for one period's segments.
func PeriodDir(outputDir, period string) string {
	return filepath.Join(outputDir, period)
}

// ExtractRoot is where archives are unpacked, one directory per period.
func ExtractRoot(outputDir string) string {
	return filepath.Join(outputDir, "unzipped")
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Extract unpacks the source archives only.
func (p *Preprocessor) Extract(ctx context.Context) (archive.Report, error) {
	in := &archive.Ingestor{
		Force:  p.settings.Force,
		Logger: p.logger,
		OnResult: func(r archive.Result) {
			p.metrics.Archive(string(r.Status))
		},
	}
	return in.ExtractAll(ctx, p.settings.SourceDir, ExtractRoot(p.settings.OutputDir), p.settings.Period)
}

// Run extracts the archives, discovers their index files and processes
// them. The summary is returned even when the run is interrupted.
func (p *Preprocessor) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: NewRunID(), Period: p.settings.Period}
	log := p.logger.With(zap.String("run_id", sum.RunID), zap.String("period", sum.Period))
	ctx = logger.ContextWithLogger(ctx, log)

	report, err := p.Extract(ctx)
	sum.Archives = report
	if err != nil {
		return sum, fmt.Errorf("extract archives: %w", err)
	}

	paths, err := archive.Discover(report.Root)
	if err != nil {
		return sum, err
	}
	sum.Documents = len(paths)
	log.Info("index files discovered", zap.Int("count", len(paths)))

	orch := &pipeline.Orchestrator{
		Components: p.components,
		Writer:     p.writer,
		ChunkSize:  p.settings.ChunkSize,
		Workers:    p.settings.EffectiveWorkers(),
		RunID:      sum.RunID,
		Metrics:    p.metrics,
	}
	results, runErr := orch.Run(ctx, paths)
	sum.Chunks = results
	for _, r := range results {
		sum.Written += r.Written
		sum.Skipped += r.Skipped
		sum.Blacklisted += r.Blacklisted
		if r.Err != nil {
			sum.Failed++
		}
	}
	sum.Duration = time.Since(start)

	log.Info("run finished",
		zap.Int("archives_extracted", report.Count(archive.StatusExtracted)),
		zap.Int("archives_existing", report.Count(archive.StatusExisting)),
		zap.Int("archives_failed", report.Count(archive.StatusFailed)),
		zap.Int("documents", sum.Documents),
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Int("blacklisted", sum.Blacklisted),
		zap.Int("failed_chunks", sum.Failed),
		zap.Duration("duration", sum.Duration))

	if err := p.metrics.WriteTextfile(p.settings.MetricsPath); err != nil {
		log.Warn("metrics not written", zap.Error(err))
	}
	if runErr != nil {
		return sum, fmt.Errorf("process documents: %w", runErr)
	}
	return sum, nil
}
