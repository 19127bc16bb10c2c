// Package sqlite writes segments as standalone SQLite databases with a
// single documents table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/cognicore/docprep/pkg/docprep/segment"
)

// Ext is the segment file extension.
const Ext = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY,
	"BATCHKLASSE" TEXT NOT NULL,
	"BATCHCONTENT" TEXT NOT NULL,
	"BatchID" TEXT NOT NULL,
	"DocumentID" TEXT NOT NULL,
	"docType" TEXT NOT NULL,
	"pageCount" TEXT NOT NULL,
	text TEXT NOT NULL,
	blacklisted INTEGER NOT NULL DEFAULT 0,
	extra TEXT,
	source_path TEXT,
	run_id TEXT
);
`

// Writer writes one database file per segment under OutputDir/segments.
type Writer struct {
	OutputDir string
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{OutputDir: outputDir}
}

// WriteSegment implements segment.Writer.
func (w *Writer) WriteSegment(ctx context.Context, index int, records []segment.Record) (string, error) {
	path := filepath.Join(segment.Dir(w.OutputDir), segment.FileName(index, Ext))
	err := segment.WriteAtomic(path, func(tmp string) error {
		return writeDB(ctx, tmp, records)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func writeDB(ctx context.Context, path string, records []segment.Record) error {
	db, err := open(ctx, path)
	if err != nil {
		return err
	}
	if err := insertRecords(ctx, db, records); err != nil {
		db.Close()
		return err
	}
	// Close checkpoints the WAL into the main file before it is renamed.
	return db.Close()
}

func insertRecords(ctx context.Context, db *sql.DB, records []segment.Record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO documents (seq, "BATCHKLASSE", "BATCHCONTENT", "BatchID", "DocumentID", "docType", "pageCount", text, blacklisted, extra, source_path, run_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			i, r.BatchClass, r.BatchContent, r.BatchID, r.DocumentID, r.DocType, r.PageCount,
			r.Text, r.Blacklisted, r.Extra, r.SourcePath, r.RunID,
		); err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.BatchID, r.DocumentID, err)
		}
	}
	return tx.Commit()
}

// ReadSegment reads all records of a SQLite segment in insertion order.
func ReadSegment(ctx context.Context, path string) ([]segment.Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
SELECT "BATCHKLASSE", "BATCHCONTENT", "BatchID", "DocumentID", "docType", "pageCount", text, blacklisted,
	COALESCE(extra, ''), COALESCE(source_path, ''), COALESCE(run_id, '')
FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read segment %s: %w", path, err)
	}
	defer rows.Close()

	var out []segment.Record
	for rows.Next() {
		var r segment.Record
		if err := rows.Scan(
			&r.BatchClass, &r.BatchContent, &r.BatchID, &r.DocumentID, &r.DocType, &r.PageCount,
			&r.Text, &r.Blacklisted, &r.Extra, &r.SourcePath, &r.RunID,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
