package index

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Parser reads index files. The zero value is usable and logs nothing.
type Parser struct {
	Logger *zap.Logger
}

// NewParser creates a parser that reports tolerated irregularities to logger.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{Logger: logger}
}

func (p *Parser) log() *zap.Logger {
	if p == nil || p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// ParseFile reads and parses one index file.
func (p *Parser) ParseFile(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %v: %w", path, err, internalerr.ErrParse)
	}
	idx, err := p.ParseLine(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// ParseLine parses the content of an index file:
//
//	"BATCHKLASSE","BATCHCONTENT","{key1}","value1",...,["trailing"]
//
// Fields after the two positional ones are key/value pairs. An odd number of
// them leaves a trailing field: empty means no path, a path-like value
// supplies the batch and document ids (unless the pairs already named them),
// anything else is kept as a key with an empty value.
func (p *Parser) ParseLine(content string) (Index, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty index line: %w", internalerr.ErrParse)
	}

	items := strings.Split(content, ",")
	for i, item := range items {
		items[i] = strings.Trim(strings.TrimSpace(item), `"`)
	}
	if len(items) < 2 {
		return nil, fmt.Errorf("index line has %d fields, need at least 2: %w", len(items), internalerr.ErrParse)
	}

	header := Header{BatchClass: items[0], BatchContent: items[1]}
	rest := items[2:]

	var trailing *string
	if len(rest)%2 == 1 {
		last := rest[len(rest)-1]
		trailing = &last
		rest = rest[:len(rest)-1]
	} else {
		p.log().Debug("index line without trailing field", zap.Int("fields", len(items)))
	}

	pairs := make([]Field, 0, len(rest)/2+1)
	for i := 0; i+1 < len(rest); i += 2 {
		pairs = append(pairs, Field{Key: CanonicalKey(rest[i]), RawKey: rest[i], Value: rest[i+1]})
	}

	var sourcePath string
	if trailing != nil {
		switch {
		case *trailing == "":
			p.log().Debug("dropping empty trailing field")
		case isPathLike(*trailing):
			sourcePath = *trailing
		default:
			p.log().Warn("odd number of key/value fields, keeping last key with empty value",
				zap.String("key", *trailing))
			pairs = append(pairs, Field{Key: CanonicalKey(*trailing), RawKey: *trailing})
		}
	}

	if hasIDs(pairs) || sourcePath == "" {
		return AttributeIndex{Header: header, Pairs: pairs}, nil
	}

	batchID, docID, err := idsFromPath(sourcePath)
	if err != nil {
		return nil, err
	}
	return ClassificationIndex{
		Header:     header,
		Pairs:      pairs,
		SourcePath: sourcePath,
		BatchID:    batchID,
		DocumentID: docID,
	}, nil
}

func hasIDs(pairs []Field) bool {
	var batch, doc bool
	for _, f := range pairs {
		switch f.Key {
		case KeyBatchID:
			batch = true
		case KeyDocumentID:
			doc = true
		}
	}
	return batch && doc
}

func isPathLike(s string) bool {
	return strings.ContainsAny(s, `\/`)
}

// idsFromPath takes the batch id from the second-to-last path segment and
// the document id from the last one, up to its first dot.
func idsFromPath(path string) (string, string, error) {
	path = strings.NewReplacer("\r", "", "\n", "").Replace(path)
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
	if len(segments) < 2 {
		return "", "", fmt.Errorf("trailing path %q has fewer than two segments: %w", path, internalerr.ErrParse)
	}
	batchID := segments[len(segments)-2]
	docID, _, _ := strings.Cut(segments[len(segments)-1], ".")
	if batchID == "" || docID == "" {
		return "", "", fmt.Errorf("trailing path %q yields empty ids: %w", path, internalerr.ErrParse)
	}
	return batchID, docID, nil
}
