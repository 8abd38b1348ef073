package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// Engine opens raw PDF bytes for page-by-page text extraction
type Engine interface {
	Open(data []byte) (Document, error)
}

// Document is an opened PDF. Pages are numbered from 1.
type Document interface {
	PageCount() int
	PageText(pageNum int) (string, error)
}

var (
	sharedOnce   sync.Once
	sharedEngine Engine
)

// SharedEngine returns the process-wide extraction engine. It is created on
// first use and reused for the rest of the process lifetime.
func SharedEngine() Engine {
	sharedOnce.Do(func() {
		sharedEngine = NewLedongthucEngine()
	})
	return sharedEngine
}

// LedongthucEngine extracts page text with ledongthuc/pdf
type LedongthucEngine struct{}

// NewLedongthucEngine creates a new ledongthuc-backed engine
func NewLedongthucEngine() *LedongthucEngine {
	return &LedongthucEngine{}
}

// Open parses the document structure. Any failure here is document-level.
func (e *LedongthucEngine) Open(data []byte) (doc Document, err error) {
	if !IsPDF(data) {
		return nil, &ExtractionError{Op: "open", Err: ErrNotPDF}
	}

	// ledongthuc/pdf panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ExtractionError{Op: "open", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Op: "open", Err: err}
	}

	return &ledongthucDocument{
		reader: reader,
		pages:  reader.NumPage(),
	}, nil
}

type ledongthucDocument struct {
	reader *pdf.Reader
	pages  int
}

// PageCount returns the number of pages in the document
func (d *ledongthucDocument) PageCount() int {
	return d.pages
}

// PageText returns the text runs of a page joined by single spaces, rows top
// to bottom and runs left to right. Pages without text yield "".
func (d *ledongthucDocument) PageText(pageNum int) (text string, err error) {
	if pageNum < 1 || pageNum > d.pages {
		return "", &ExtractionError{
			Op:   "page_text",
			Page: pageNum,
			Err:  fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, pageNum, d.pages),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Op: "page_text", Page: pageNum, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", &ExtractionError{Op: "page_text", Page: pageNum, Err: err}
	}

	return joinRows(rows), nil
}

func joinRows(rows pdf.Rows) string {
	var parts []string
	for _, row := range rows {
		for _, run := range row.Content {
			if run.S == "" {
				continue
			}
			parts = append(parts, run.S)
		}
	}
	return strings.Join(parts, " ")
}
