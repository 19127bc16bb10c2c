// Package segment defines the output row and the writers that persist one
// chunk of rows as one segment.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Record is one output row.
type Record struct {
	BatchClass   string `parquet:"BATCHKLASSE" json:"BATCHKLASSE"`
	BatchContent string `parquet:"BATCHCONTENT" json:"BATCHCONTENT"`
	BatchID      string `parquet:"BatchID" json:"BatchID"`
	DocumentID   string `parquet:"DocumentID" json:"DocumentID"`
	DocType      string `parquet:"docType" json:"docType"`
	PageCount    string `parquet:"pageCount" json:"pageCount"`
	Text         string `parquet:"text" json:"text"`
	Blacklisted  bool   `parquet:"blacklisted" json:"blacklisted"`
	Extra        string `parquet:"extra" json:"extra,omitempty"` // JSON object of non-schema keys
	SourcePath   string `parquet:"source_path" json:"source_path,omitempty"`
	RunID        string `parquet:"run_id" json:"run_id,omitempty"`
}

// Writer persists a chunk's records as segment index. Writing the same index
// again replaces the previous segment.
type Writer interface {
	WriteSegment(ctx context.Context, index int, records []Record) (string, error)
}

// Dir is the directory segments are written to.
func Dir(outputDir string) string {
	return filepath.Join(outputDir, "segments")
}

// FileName is the segment file name for a chunk index.
func FileName(index int, ext string) string {
	return fmt.Sprintf("segment_%d.%s", index, ext)
}

// EncodeExtra renders extra metadata as a JSON object with sorted keys.
// No extra fields yield "".
func EncodeExtra(extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return "", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeExtra is the inverse of EncodeExtra.
func DecodeExtra(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteAtomic creates path through write, which receives a temporary file
// name in the same directory. The temp file is renamed over path only when
// write succeeds, so readers never see a partial segment.
func WriteAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create segment dir: %v: %w", err, internalerr.ErrSegmentWrite)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp segment: %v: %w", err, internalerr.ErrSegmentWrite)
	}
	tmp := f.Name()
	f.Close()

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %v: %w", path, err, internalerr.ErrSegmentWrite)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %v: %w", path, err, internalerr.ErrSegmentWrite)
	}
	return nil
}

// List returns the segment files with extension ext under outputDir, sorted.
func List(outputDir, ext string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(Dir(outputDir), "segment_*."+ext))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
