package parquet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/docprep/pkg/docprep/segment"
)

func sampleRecords() []segment.Record {
	return []segment.Record{
		{
			BatchClass: "zipname", BatchContent: "filename", BatchID: "Batch_001", DocumentID: "Doc_00001",
			DocType: "bill", PageCount: "5", Text: "[REDACTED_PHRASE], Rechnung anbei.",
			Extra: `{"scanner":"S1"}`, RunID: "01HZY",
		},
		{
			BatchClass: "zipname", BatchContent: "filename", BatchID: "Batch_001", DocumentID: "Doc_00002",
			DocType: "letter", PageCount: "1", SourcePath: `C:\import\Batch_001\Doc_00002.tif`,
		},
	}
}

func TestWriteAndRead(t *testing.T) {
	out := t.TempDir()
	w := NewWriter(out)

	path, err := w.WriteSegment(context.Background(), 3, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "segments", "segment_3.parquet"), path)

	got, err := ReadSegment(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestRewriteReplacesSegment(t *testing.T) {
	w := NewWriter(t.TempDir())
	ctx := context.Background()

	_, err := w.WriteSegment(ctx, 0, sampleRecords())
	require.NoError(t, err)
	path, err := w.WriteSegment(ctx, 0, sampleRecords()[:1])
	require.NoError(t, err)

	got, err := ReadSegment(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	paths, err := segment.List(w.OutputDir, Ext)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestEmptySegment(t *testing.T) {
	w := NewWriter(t.TempDir())
	path, err := w.WriteSegment(context.Background(), 1, nil)
	require.NoError(t, err)

	got, err := ReadSegment(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWriter(t.TempDir()).WriteSegment(ctx, 0, sampleRecords())
	assert.ErrorIs(t, err, context.Canceled)
}
