package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/segment"
)

func TestWriteReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.WriteSegment(ctx, 1, []segment.Record{{DocumentID: "a"}, {DocumentID: "b"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteSegment(ctx, 1, []segment.Record{{DocumentID: "c"}}); err != nil {
		t.Fatal(err)
	}

	recs, ok := s.Segment(1)
	if !ok || len(recs) != 1 || recs[0].DocumentID != "c" {
		t.Fatalf("expected replaced segment, got %+v", recs)
	}
	if s.Writes(1) != 2 {
		t.Errorf("expected 2 writes, got %d", s.Writes(1))
	}
}

func TestIndexesAndAll(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.WriteSegment(ctx, 2, []segment.Record{{DocumentID: "z"}})
	s.WriteSegment(ctx, 0, []segment.Record{{DocumentID: "a"}})

	idx := s.Indexes()
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Errorf("expected [0 2], got %v", idx)
	}
	all := s.All()
	if len(all) != 2 || all[0].DocumentID != "a" {
		t.Errorf("unexpected records %+v", all)
	}
}

func TestFailOn(t *testing.T) {
	s := New()
	s.FailOn(0, errors.New("boom"))
	_, err := s.WriteSegment(context.Background(), 0, nil)
	if !errors.Is(err, internalerr.ErrSegmentWrite) {
		t.Fatalf("expected ErrSegmentWrite, got %v", err)
	}
	if _, ok := s.Segment(0); ok {
		t.Error("failed write must not store a segment")
	}
}
