// Package archive extracts batch archives into the working tree and finds
// the index files inside it.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/docprep/pkg/docprep/ingest"
	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Ext is the archive file extension.
const Ext = ".zip"

// maxEntrySize caps a single extracted file.
const maxEntrySize = 1 << 30

// Status of one archive after ExtractAll.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusExisting  Status = "existing"
	StatusFailed    Status = "failed"
)

// Result is the outcome for one archive.
type Result struct {
	Archive string
	Target  string
	Status  Status
	Files   int
	Err     error
}

// Report summarizes an ExtractAll call.
type Report struct {
	Root    string // dstRoot/<period>
	Results []Result
}

// Count returns how many archives ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Ingestor extracts archives. Extraction is idempotent: an archive whose
// target directory exists is skipped unless Force is set.
type Ingestor struct {
	Force  bool
	Logger *zap.Logger
	// OnResult, if set, is called after each archive.
	OnResult func(Result)
}

func (in *Ingestor) log() *zap.Logger {
	if in.Logger == nil {
		return zap.NewNop()
	}
	return in.Logger
}

// ExtractAll extracts every archive in srcDir into dstRoot/<period>/<name>/.
// A corrupt archive is logged and reported, never fatal; only an unreadable
// srcDir or a cancelled ctx fail the call.
func (in *Ingestor) ExtractAll(ctx context.Context, srcDir, dstRoot, period string) (Report, error) {
	report := Report{Root: filepath.Join(dstRoot, period)}

	archives, err := filepath.Glob(filepath.Join(srcDir, "*"+Ext))
	if err != nil {
		return report, fmt.Errorf("list archives: %w", err)
	}
	if _, err := os.Stat(srcDir); err != nil {
		return report, fmt.Errorf("source dir %s: %v: %w", srcDir, err, internalerr.ErrArchive)
	}
	sort.Strings(archives)

	for _, path := range archives {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := in.extractOne(path, report.Root)
		report.Results = append(report.Results, res)
		if in.OnResult != nil {
			in.OnResult(res)
		}
	}

	in.log().Info("archives processed",
		zap.String("root", report.Root),
		zap.Int("extracted", report.Count(StatusExtracted)),
		zap.Int("existing", report.Count(StatusExisting)),
		zap.Int("failed", report.Count(StatusFailed)))
	return report, nil
}

func (in *Ingestor) extractOne(path, root string) Result {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res := Result{Archive: path, Target: filepath.Join(root, name)}
	log := in.log().With(zap.String("archive", filepath.Base(path)))

	if _, err := os.Stat(res.Target); err == nil && !in.Force {
		log.Info("skipping, already extracted", zap.String("target", res.Target))
		res.Status = StatusExisting
		return res
	}

	log.Info("extracting", zap.String("target", res.Target))
	n, err := Extract(path, res.Target)
	if err != nil {
		log.Error("extract failed", zap.Error(err))
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusExtracted
	res.Files = n
	return res
}

// Extract unpacks one zip archive into target, replacing target if it
// exists. Files are first written to a sibling staging directory, so a
// corrupt archive leaves no partial target behind. Returns the number of
// files written.
func Extract(archivePath, target string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %v: %w", archivePath, err, internalerr.ErrArchive)
	}
	defer r.Close()

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", parent, err)
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(target)+".partial-*")
	if err != nil {
		return 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	files := 0
	for _, f := range r.File {
		dest, err := entryPath(staging, f.Name)
		if err != nil {
			return 0, fmt.Errorf("%s: %v: %w", archivePath, err, internalerr.ErrArchive)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return 0, err
			}
			continue
		}
		if err := writeEntry(f, dest); err != nil {
			return 0, fmt.Errorf("%s: entry %s: %v: %w", archivePath, f.Name, err, internalerr.ErrArchive)
		}
		files++
	}

	if err := os.RemoveAll(target); err != nil {
		return 0, fmt.Errorf("replace %s: %w", target, err)
	}
	if err := os.Rename(staging, target); err != nil {
		return 0, fmt.Errorf("move %s: %w", target, err)
	}
	return files, nil
}

// entryPath resolves an entry name below root. Backslash separators from
// Windows-built archives are accepted; names escaping root are rejected.
func entryPath(root, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal entry name %q", name)
	}
	dest := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes archive root", name)
	}
	return dest, nil
}

func writeEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > maxEntrySize {
		return errors.New("entry exceeds size limit")
	}
	return nil
}

// Discover returns every index file below root, sorted, so the chunk
// partition is the same on every run. A root that was never created holds
// no index files.
func Discover(root string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.Contains(d.Name(), ".partial-") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ingest.IndexSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover index files in %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
