package index

import "strings"

// Canonical keys every valid entry carries after normalization.
const (
	KeyBatchClass   = "BATCHKLASSE"
	KeyBatchContent = "BATCHCONTENT"
	KeyBatchID      = "BatchID"
	KeyDocumentID   = "DocumentID"
	KeyDocType      = "docType"
	KeyPageCount    = "pageCount"
)

// RequiredKeys is the schema of a valid entry, in output column order.
var RequiredKeys = []string{
	KeyBatchClass, KeyBatchContent, KeyBatchID, KeyDocumentID, KeyDocType, KeyPageCount,
}

// Kind discriminates the two index file shapes.
type Kind int

const (
	// KindAttribute carries batch and document ids as explicit key/value pairs.
	KindAttribute Kind = iota + 1
	// KindClassification derives batch and document ids from a trailing path.
	KindClassification
)

func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindClassification:
		return "classification"
	default:
		return "unknown"
	}
}

// Field is one key/value pair of an index line. Key is canonical, RawKey
// is the key as written in the file ("{Batch ID}").
type Field struct {
	Key    string
	RawKey string
	Value  string
}

// Index is a parsed index line of either shape.
type Index interface {
	Kind() Kind
	// Entry normalizes the index into the ordered, canonical-keyed form.
	Entry() Entry
}

// Header holds the two positional fields every index line starts with.
type Header struct {
	BatchClass   string
	BatchContent string
}

// AttributeIndex is an index line whose key/value pairs name the batch and
// document ids explicitly.
type AttributeIndex struct {
	Header
	Pairs []Field
}

// Kind implements Index.
func (a AttributeIndex) Kind() Kind { return KindAttribute }

// Entry implements Index.
func (a AttributeIndex) Entry() Entry {
	e := newEntry(KindAttribute, a.Header)
	for _, f := range a.Pairs {
		e.set(f)
	}
	return e
}

// ClassificationIndex is an index line whose batch and document ids come
// from the trailing path field.
type ClassificationIndex struct {
	Header
	Pairs      []Field
	SourcePath string
	BatchID    string
	DocumentID string
}

// Kind implements Index.
func (c ClassificationIndex) Kind() Kind { return KindClassification }

// Entry implements Index.
func (c ClassificationIndex) Entry() Entry {
	e := newEntry(KindClassification, c.Header)
	for _, f := range c.Pairs {
		e.set(f)
	}
	if _, ok := e.Get(KeyBatchID); !ok {
		e.set(Field{Key: KeyBatchID, RawKey: KeyBatchID, Value: c.BatchID})
	}
	if _, ok := e.Get(KeyDocumentID); !ok {
		e.set(Field{Key: KeyDocumentID, RawKey: KeyDocumentID, Value: c.DocumentID})
	}
	return e
}

// Entry is the normalized form of an index line: ordered fields with
// unique canonical keys.
type Entry struct {
	Kind   Kind
	Fields []Field
}

func newEntry(kind Kind, h Header) Entry {
	return Entry{
		Kind: kind,
		Fields: []Field{
			{Key: KeyBatchClass, RawKey: KeyBatchClass, Value: h.BatchClass},
			{Key: KeyBatchContent, RawKey: KeyBatchContent, Value: h.BatchContent},
		},
	}
}

// set replaces the value of an existing key in place or appends a new one.
func (e *Entry) set(f Field) {
	for i := range e.Fields {
		if e.Fields[i].Key == f.Key {
			e.Fields[i].Value = f.Value
			return
		}
	}
	e.Fields = append(e.Fields, f)
}

// Get returns the value stored under a canonical key.
func (e Entry) Get(key string) (string, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value under key or "".
func (e Entry) Value(key string) string {
	v, _ := e.Get(key)
	return v
}

// Map returns the entry as a plain map.
func (e Entry) Map() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// Extra returns the fields outside RequiredKeys, in order.
func (e Entry) Extra() []Field {
	var extra []Field
	for _, f := range e.Fields {
		if !isRequired(f.Key) {
			extra = append(extra, f)
		}
	}
	return extra
}

func isRequired(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

// CanonicalKey strips the braces and blanks index files put around some
// keys: "{Batch ID}" and "{BatchID}" both become "BatchID".
func CanonicalKey(raw string) string {
	k := strings.TrimSpace(raw)
	k = strings.TrimPrefix(k, "{")
	k = strings.TrimSuffix(k, "}")
	return strings.Join(strings.Fields(k), "")
}
