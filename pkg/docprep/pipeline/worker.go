package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/cognicore/docprep/pkg/docprep/config"
	"github.com/cognicore/docprep/pkg/docprep/index"
	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/recognize"
	"github.com/cognicore/docprep/pkg/docprep/redact"
	"github.com/cognicore/docprep/pkg/docprep/segment"
)

// Outcome is what happened to one document.
type Outcome int

const (
	Written Outcome = iota
	Skipped
	Blacklisted
)

func (o Outcome) String() string {
	switch o {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	case Blacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

// DocResult is the outcome of processing one index file. Record is set only
// for Written.
type DocResult struct {
	Path    string
	Outcome Outcome
	Record  segment.Record
	Err     error
}

// Worker runs the per-document pipeline. It owns its matcher and recognizer
// and must not be shared between goroutines.
type Worker struct {
	parser    *index.Parser
	validator *index.Validator
	blacklist *redact.Blacklist
	chain     redact.Chain
	runID     string
	logger    *zap.Logger
}

// NewWorker builds a worker from the shared read-only components. Each call
// builds a fresh matcher and asks the factory for a fresh recognizer.
func NewWorker(comp *config.Components, runID string, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	validator, err := index.NewValidator()
	if err != nil {
		return nil, err
	}

	var rec recognize.Recognizer = recognize.Nop{}
	if comp.Recognizers != nil {
		if rec, err = comp.Recognizers(); err != nil {
			return nil, fmt.Errorf("build recognizer: %w", err)
		}
	}

	matcher := ingest.NewPhraseMatcher(ingest.NewTokenizer(), comp.Phrases)
	return &Worker{
		parser:    index.NewParser(logger),
		validator: validator,
		blacklist: comp.Blacklist,
		chain: redact.Chain{
			redact.NewPhraseRedactor(matcher),
			redact.NewPatternRedactor(comp.Patterns),
			redact.NewEntityRedactor(rec),
		},
		runID:  runID,
		logger: logger,
	}, nil
}

// Process parses, validates, filters and redacts one document. It never
// panics: a panic anywhere in the pipeline turns into a skipped document.
func (w *Worker) Process(ctx context.Context, path string) (res DocResult) {
	res = DocResult{Path: path, Outcome: Skipped}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing document",
				zap.String("path", path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = DocResult{Path: path, Outcome: Skipped, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	idx, err := w.parser.ParseFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	entry := idx.Entry()
	if err := w.validator.Validate(entry); err != nil {
		res.Err = err
		return res
	}

	doc := ingest.LoadDoc(path)
	switch {
	case doc.ReadErr != nil:
		w.logger.Warn("text file unreadable, keeping document with empty text",
			zap.String("path", doc.TextPath), zap.Error(doc.ReadErr))
	case !doc.HasText:
		w.logger.Debug("no paired text file", zap.String("path", path))
	}

	if redact.IsBlacklisted(doc.Text, w.blacklist) {
		res.Outcome = Blacklisted
		res.Err = internalerr.ErrBlacklisted
		return res
	}

	text, err := w.chain.Redact(ctx, doc.Text)
	if err != nil {
		res.Err = err
		return res
	}

	rec, err := w.record(idx, entry, text, path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Outcome = Written
	res.Err = nil
	res.Record = rec
	return res
}

func (w *Worker) record(idx index.Index, entry index.Entry, text, path string) (segment.Record, error) {
	extra := make(map[string]string)
	for _, f := range entry.Extra() {
		extra[f.Key] = f.Value
	}
	encoded, err := segment.EncodeExtra(extra)
	if err != nil {
		return segment.Record{}, fmt.Errorf("encode extra fields: %w", err)
	}

	source := path
	if c, ok := idx.(index.ClassificationIndex); ok {
		source = c.SourcePath
	}

	return segment.Record{
		BatchClass:   entry.Value(index.KeyBatchClass),
		BatchContent: entry.Value(index.KeyBatchContent),
		BatchID:      entry.Value(index.KeyBatchID),
		DocumentID:   entry.Value(index.KeyDocumentID),
		DocType:      entry.Value(index.KeyDocType),
		PageCount:    entry.Value(index.KeyPageCount),
		Text:         text,
		Extra:        encoded,
		SourcePath:   source,
		RunID:        w.runID,
	}, nil
}

// reason classifies a skip for logging.
func reason(err error) string {
	switch {
	case errors.Is(err, internalerr.ErrParse):
		return "parse"
	case errors.Is(err, internalerr.ErrSchema):
		return "schema"
	case errors.Is(err, internalerr.ErrRecognizer):
		return "recognizer"
	default:
		return "error"
	}
}
