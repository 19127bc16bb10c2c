package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
	"github.com/cognicore/docprep/pkg/docprep/segment"
)

// Store is an in-memory segment.Writer for tests.
type Store struct {
	mu       sync.RWMutex
	segments map[int][]segment.Record
	writes   map[int]int
	failures map[int]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		segments: make(map[int][]segment.Record),
		writes:   make(map[int]int),
		failures: make(map[int]error),
	}
}

// FailOn makes every write of segment index return err.
func (s *Store) FailOn(index int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[index] = err
}

// WriteSegment implements segment.Writer, replacing any previous segment
// with the same index.
func (s *Store) WriteSegment(ctx context.Context, index int, records []segment.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failures[index]; ok {
		return "", fmt.Errorf("segment %d: %v: %w", index, err, internalerr.ErrSegmentWrite)
	}
	cp := make([]segment.Record, len(records))
	copy(cp, records)
	s.segments[index] = cp
	s.writes[index]++
	return fmt.Sprintf("mem://%s", segment.FileName(index, "mem")), nil
}

// Segment returns a copy of segment index.
func (s *Store) Segment(index int) ([]segment.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.segments[index]
	if !ok {
		return nil, false
	}
	cp := make([]segment.Record, len(recs))
	copy(cp, recs)
	return cp, true
}

// Writes returns how often segment index was written.
func (s *Store) Writes(index int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[index]
}

// Indexes returns the written segment indexes, ascending.
func (s *Store) Indexes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.segments))
	for i := range s.segments {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// All returns every record, ordered by segment index then row.
func (s *Store) All() []segment.Record {
	var out []segment.Record
	for _, i := range s.Indexes() {
		recs, _ := s.Segment(i)
		out = append(out, recs...)
	}
	return out
}
