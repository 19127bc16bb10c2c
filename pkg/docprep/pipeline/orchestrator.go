// Package pipeline partitions discovered index files into chunks and runs
// the per-document redaction pipeline over them, sequentially or on a pool
// of workers, writing one segment per chunk.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/docprep/internal/logger"
	"github.com/cognicore/docprep/internal/metrics"
	"github.com/cognicore/docprep/pkg/docprep/config"
	"github.com/cognicore/docprep/pkg/docprep/segment"
)

// ChunkResult summarizes one processed chunk.
type ChunkResult struct {
	Index       int
	Total       int
	Written     int
	Skipped     int
	Blacklisted int
	Segment     string
	Duration    time.Duration
	// Err is set when the chunk's segment could not be written or the chunk
	// was interrupted. Document failures never set it.
	Err error
}

// DropRatio is the share of the chunk's documents that were blacklisted.
func (r ChunkResult) DropRatio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Blacklisted) / float64(r.Total)
}

// Orchestrator dispatches chunks to workers.
type Orchestrator struct {
	Components *config.Components
	Writer     segment.Writer
	ChunkSize  int
	// Workers is the pool size; 1 or less runs the chunks sequentially on
	// the calling goroutine.
	Workers int
	RunID   string
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (o *Orchestrator) log(ctx context.Context) *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.FromContext(ctx)
}

// Run processes paths and returns one result per dispatched chunk, ordered
// by chunk index. Document and segment failures are reported in the
// results; Run itself fails only on invalid settings, when no worker can be
// built, or when ctx is cancelled. After cancellation no further chunk is
// dispatched and the results collected so far are returned with the error.
func (o *Orchestrator) Run(ctx context.Context, paths []string) ([]ChunkResult, error) {
	if o.Components == nil || o.Writer == nil {
		return nil, fmt.Errorf("orchestrator needs components and a segment writer")
	}
	chunks, err := Chunks(paths, o.ChunkSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := o.log(ctx)

	// A worker that cannot be built here could not be built in the pool
	// either; fail before any segment is touched.
	probe, err := NewWorker(o.Components, o.RunID, log)
	if err != nil {
		return nil, fmt.Errorf("build worker: %w", err)
	}

	workers := max(1, min(o.Workers, len(chunks)))
	log.Info("processing documents",
		zap.Int("documents", len(paths)),
		zap.Int("chunks", len(chunks)),
		zap.Int("workers", workers))

	results := make([]ChunkResult, len(chunks))
	done := make([]bool, len(chunks))

	if workers == 1 {
		err = o.runSequential(ctx, probe, chunks, results, done)
	} else {
		err = o.runParallel(ctx, workers, chunks, results, done)
	}

	out := make([]ChunkResult, 0, len(chunks))
	var total, dropped int
	for i, r := range results {
		if !done[i] {
			continue
		}
		out = append(out, r)
		total += r.Total
		dropped += r.Blacklisted
	}
	if total > 0 {
		o.Metrics.DropRatio(float64(dropped) / float64(total))
	}
	return out, err
}

func (o *Orchestrator) runSequential(ctx context.Context, w *Worker, chunks []Chunk, results []ChunkResult, done []bool) error {
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[c.Index] = o.runChunk(ctx, w, c)
		done[c.Index] = true
	}
	return nil
}

func (o *Orchestrator) runParallel(ctx context.Context, workers int, chunks []Chunk, results []ChunkResult, done []bool) error {
	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan Chunk)

	g.Go(func() error {
		defer close(queue)
		for _, c := range chunks {
			select {
			case queue <- c:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			w, err := NewWorker(o.Components, o.RunID, o.log(ctx).With(zap.Int("worker", i)))
			if err != nil {
				return fmt.Errorf("build worker %d: %w", i, err)
			}
			for c := range queue {
				// Each chunk index is owned by exactly one worker.
				results[c.Index] = o.runChunk(gctx, w, c)
				done[c.Index] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// runChunk processes a chunk's documents in order and writes its segment.
func (o *Orchestrator) runChunk(ctx context.Context, w *Worker, c Chunk) (res ChunkResult) {
	start := time.Now()
	log := o.log(ctx).With(zap.Int("chunk", c.Index))
	res = ChunkResult{Index: c.Index, Total: len(c.Paths)}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing chunk", zap.Any("panic", r))
			res.Err = fmt.Errorf("chunk %d: panic: %v", c.Index, r)
		}
		res.Duration = time.Since(start)
		o.Metrics.Chunk(res.Duration.Seconds(), res.Err != nil)
	}()

	records := make([]segment.Record, 0, len(c.Paths))
	for _, path := range c.Paths {
		if err := ctx.Err(); err != nil {
			log.Warn("chunk interrupted, segment not written", zap.Error(err))
			res.Err = err
			return res
		}
		doc := w.Process(ctx, path)
		switch doc.Outcome {
		case Written:
			records = append(records, doc.Record)
			res.Written++
			o.Metrics.Document(metrics.OutcomeWritten)
		case Blacklisted:
			res.Blacklisted++
			o.Metrics.Document(metrics.OutcomeBlacklisted)
			log.Info("document blacklisted", zap.String("path", path))
		default:
			res.Skipped++
			o.Metrics.Document(metrics.OutcomeSkipped)
			log.Warn("document skipped",
				zap.String("path", path),
				zap.String("reason", reason(doc.Err)),
				zap.Error(doc.Err))
		}
	}

	path, err := o.Writer.WriteSegment(ctx, c.Index, records)
	if err != nil {
		log.Error("segment write failed", zap.Error(err))
		res.Err = err
		return res
	}
	res.Segment = path

	log.Info("chunk done",
		zap.Int("total", res.Total),
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped),
		zap.Int("blacklisted", res.Blacklisted),
		zap.Float64("drop_ratio", res.DropRatio()),
		zap.String("segment", path))
	return res
}
