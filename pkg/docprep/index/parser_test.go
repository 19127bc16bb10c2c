package index

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

const attributeLine = `"zipname","filename","{BatchID}","Batch_001","{DocumentID}","Doc_00001","docType","bill","{pageCount}","5"`

func TestParseFileAttributeIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_index.txt")
	if err := os.WriteFile(path, []byte(attributeLine+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := NewParser(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if idx.Kind() != KindAttribute {
		t.Errorf("Expected attribute index, got %s", idx.Kind())
	}

	expected := map[string]string{
		"BATCHKLASSE":  "zipname",
		"BATCHCONTENT": "filename",
		"BatchID":      "Batch_001",
		"DocumentID":   "Doc_00001",
		"docType":      "bill",
		"pageCount":    "5",
	}
	if got := idx.Entry().Map(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParseLineKeepsPairOrderAndCount(t *testing.T) {
	line := `"k","c","{Batch ID}","B1","{Document ID}","D1","docType","invoice","{pageCount}","2","Vendor","ACME","Amount","12,50",""`
	idx, err := NewParser(nil).ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}

	entry := idx.Entry()
	// "12,50" is split by the comma: Amount="12", then "50" is a key with value "".
	var keys []string
	for _, f := range entry.Fields {
		keys = append(keys, f.Key)
	}
	expected := []string{"BATCHKLASSE", "BATCHCONTENT", "BatchID", "DocumentID", "docType", "pageCount", "Vendor", "Amount", "50"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}
	if entry.Fields[2].RawKey != "{Batch ID}" {
		t.Errorf("Raw key should be preserved, got %q", entry.Fields[2].RawKey)
	}
}

func TestParseLineClassificationIndex(t *testing.T) {
	line := `"Eingang","Scan","docType","letter","{pageCount}","1","C:\\import\\Batch_007\\Doc_00042.tif"`
	idx, err := NewParser(nil).ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}

	ci, ok := idx.(ClassificationIndex)
	if !ok {
		t.Fatalf("Expected ClassificationIndex, got %T", idx)
	}
	if ci.BatchID != "Batch_007" || ci.DocumentID != "Doc_00042" {
		t.Errorf("Expected Batch_007/Doc_00042, got %s/%s", ci.BatchID, ci.DocumentID)
	}
	entry := idx.Entry()
	if entry.Value(KeyBatchID) != "Batch_007" || entry.Value(KeyDocumentID) != "Doc_00042" {
		t.Errorf("Derived ids missing from entry: %v", entry.Map())
	}
}

func TestParseLineExplicitIDsWinOverPath(t *testing.T) {
	line := `"k","c","{Batch ID}","B1","{Document ID}","D1","docType","x","{pageCount}","1","/data/B9/D9.txt"`
	idx, err := NewParser(nil).ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Kind() != KindAttribute {
		t.Errorf("Explicit ids should make an attribute index, got %s", idx.Kind())
	}
	if got := idx.Entry().Value(KeyBatchID); got != "B1" {
		t.Errorf("Explicit BatchID should be kept, got %s", got)
	}
}

func TestParseLineEmptyTrailingDropped(t *testing.T) {
	line := `"k","c","{BatchID}","B","{DocumentID}","D",""`
	idx, err := NewParser(nil).ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(idx.Entry().Fields); n != 4 {
		t.Errorf("Empty trailing field should be dropped, got %d fields", n)
	}
}

func TestParseLineUnmatchedKey(t *testing.T) {
	line := `"k","c","docType","bill","orphan"`
	idx, err := NewParser(nil).ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := idx.Entry().Get("orphan")
	if !ok || v != "" {
		t.Errorf("Unmatched key should map to empty value, got %q (present=%v)", v, ok)
	}
}

func TestParseLineErrors(t *testing.T) {
	parser := NewParser(nil)
	for _, line := range []string{"", "   ", `"only"`, `"k","c","docType","x","\\single"`} {
		if _, err := parser.ParseLine(line); !errors.Is(err, internalerr.ErrParse) {
			t.Errorf("Line %q: expected ErrParse, got %v", line, err)
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewParser(nil).ParseFile(filepath.Join(t.TempDir(), "nope_index.txt"))
	if !errors.Is(err, internalerr.ErrParse) {
		t.Errorf("Expected ErrParse for unreadable file, got %v", err)
	}
}

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"{Batch ID}":    "BatchID",
		"{BatchID}":     "BatchID",
		" {pageCount} ": "pageCount",
		"docType":       "docType",
	}
	for raw, want := range cases {
		if got := CanonicalKey(raw); got != want {
			t.Errorf("CanonicalKey(%q) = %q, want %q", raw, got, want)
		}
	}
}
