package pipeline

import (
	"fmt"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Chunk is a contiguous slice of the discovered index files. It is the unit
// of dispatch and of persistence: chunk i is written as segment i.
type Chunk struct {
	Index int
	Paths []string
}

// Chunks partitions paths into ordered chunks of at most size paths. The
// last chunk may be smaller.
func Chunks(paths []string, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", size, internalerr.ErrInvalidConfig)
	}
	chunks := make([]Chunk, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		chunks = append(chunks, Chunk{Index: len(chunks), Paths: paths[start:end]})
	}
	return chunks, nil
}
