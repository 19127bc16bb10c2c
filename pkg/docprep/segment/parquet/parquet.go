// Package parquet writes segments as Parquet files.
package parquet

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/cognicore/docprep/pkg/docprep/segment"
)

// Ext is the segment file extension.
const Ext = "parquet"

// Writer writes one Parquet file per segment under OutputDir/segments.
type Writer struct {
	OutputDir string
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{OutputDir: outputDir}
}

// WriteSegment implements segment.Writer.
func (w *Writer) WriteSegment(ctx context.Context, index int, records []segment.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(segment.Dir(w.OutputDir), segment.FileName(index, Ext))
	err := segment.WriteAtomic(path, func(tmp string) error {
		return parquet.WriteFile(tmp, records)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadSegment reads all records of a Parquet segment.
func ReadSegment(path string) ([]segment.Record, error) {
	rows, err := parquet.ReadFile[segment.Record](path)
	if err != nil {
		return nil, fmt.Errorf("read segment %s: %w", path, err)
	}
	return rows, nil
}
