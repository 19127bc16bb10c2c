package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/docprep/pkg/docprep/segment"
)

func TestWriteAndRead(t *testing.T) {
	out := t.TempDir()
	ctx := context.Background()
	records := []segment.Record{
		{BatchClass: "zipname", BatchContent: "filename", BatchID: "Batch_001", DocumentID: "Doc_00001",
			DocType: "bill", PageCount: "5", Text: "Hallo [REDACTED]", RunID: "run-1"},
		{BatchClass: "zipname", BatchContent: "filename", BatchID: "Batch_001", DocumentID: "Doc_00002",
			DocType: "letter", PageCount: "2", Extra: `{"a":"b"}`},
	}

	path, err := NewWriter(out).WriteSegment(ctx, 2, records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "segments", "segment_2.sqlite"), path)

	got, err := ReadSegment(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "segment_2.sqlite", e.Name(), "no temp or journal files left behind")
	}
}

func TestRewriteReplacesSegment(t *testing.T) {
	out := t.TempDir()
	ctx := context.Background()
	w := NewWriter(out)

	first := []segment.Record{{BatchID: "B", DocumentID: "1"}, {BatchID: "B", DocumentID: "2"}}
	_, err := w.WriteSegment(ctx, 0, first)
	require.NoError(t, err)

	path, err := w.WriteSegment(ctx, 0, first[1:])
	require.NoError(t, err)

	got, err := ReadSegment(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].DocumentID)
}
