package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Doc is one document of an extracted archive: the index file and the OCR
// text file it pairs with.
type Doc struct {
	IndexPath string
	TextPath  string
	Text      string
	HasText   bool
	// ReadErr is set when the text file exists but could not be read or
	// flattened. Text is empty in that case.
	ReadErr error
}

// IndexSuffix marks metadata files; the paired text file drops it.
const IndexSuffix = "_index.txt"

// TextPathFor maps ".../<id>_index.txt" to ".../<id>.txt".
func TextPathFor(indexPath string) string {
	if strings.HasSuffix(indexPath, IndexSuffix) {
		return strings.TrimSuffix(indexPath, IndexSuffix) + ".txt"
	}
	return indexPath
}

// LoadDoc reads the text file paired with indexPath. The document is kept
// with empty Text when the text file is missing (HasText false) or
// unreadable (ReadErr set).
func LoadDoc(indexPath string) Doc {
	d := Doc{IndexPath: indexPath, TextPath: TextPathFor(indexPath)}
	text, err := ReadText(d.TextPath)
	if errors.Is(err, internalerr.ErrMissingText) {
		return d
	}
	if err != nil {
		d.ReadErr = err
		return d
	}
	d.Text = text
	d.HasText = true
	return d
}

// ReadText reads an OCR text file. hOCR/HTML output is flattened to plain
// text; anything else is returned unchanged.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, internalerr.ErrMissingText)
	}
	if err != nil {
		return "", fmt.Errorf("read text %s: %w", path, err)
	}
	text := string(data)
	if !IsMarkup(text) {
		return text, nil
	}
	flat, err := FlattenMarkup(text)
	if err != nil {
		return "", fmt.Errorf("flatten markup %s: %w", path, err)
	}
	return flat, nil
}

// IsMarkup reports whether text looks like an HTML or hOCR document.
func IsMarkup(text string) bool {
	head := strings.TrimSpace(text)
	if !strings.HasPrefix(head, "<") {
		return false
	}
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "ocr_page")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var skipElements = map[string]bool{"head": true, "script": true, "style": true}

// FlattenMarkup extracts the visible text of an HTML/hOCR document. Block
// elements and hOCR lines end with a newline; inline runs keep the
// whitespace the markup carried.
func FlattenMarkup(src string) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (blockElements[n.Data] || isOCRLine(n)) {
			if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	walk(root)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func isOCRLine(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == "ocr_line" || c == "ocr_par" || c == "ocr_carea" {
				return true
			}
		}
	}
	return false
}
