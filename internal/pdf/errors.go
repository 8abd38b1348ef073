package pdf

import (
	"errors"
	"fmt"
)

// Common error variables
var (
	ErrNotPDF      = errors.New("not a PDF document")
	ErrInvalidPage = errors.New("invalid page number")
	ErrEncrypted   = errors.New("document is encrypted")
	ErrFileTooBig  = errors.New("file exceeds maximum size")
)

// ExtractionError reports a failure while opening a document or extracting a
// page. Page is zero for document-level failures.
type ExtractionError struct {
	Op   string `json:"operation"`
	Page int    `json:"page,omitempty"`
	Err  error  `json:"error"`
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pdf %s failed on page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("pdf %s failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsDocumentLevel reports whether err is an extraction failure that affects the
// whole document rather than a single page.
func IsDocumentLevel(err error) bool {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Page == 0
	}
	return false
}
