// Package scan matches sensitive phrases against the pages of a PDF document.
package scan

import (
	"context"
	"fmt"
	"slices"

	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/pdf"
)

// Match lists the pages a phrase was found on, ascending and unique
type Match struct {
	Phrase string `json:"phrase"`
	Pages  []int  `json:"pages"`
}

// Result is the outcome of one scan. ScannedPages is the last page processed
// successfully; it is below TotalPages after cancellation or a failed last page.
type Result struct {
	Matches      []Match `json:"matches"`
	TotalPages   int     `json:"totalPages"`
	ScannedPages int     `json:"scannedPages"`
}

// ProgressFunc is notified once per page before the page is processed
type ProgressFunc func(current, total int)

// Options configures a scan. All fields are optional.
type Options struct {
	Token      CancellationToken
	OnProgress ProgressFunc
}

// Scanner drives page-by-page extraction and matching
type Scanner struct {
	engine pdf.Engine
}

// NewScanner creates a scanner on top of an extraction engine. A nil engine
// selects the shared process-wide engine.
func NewScanner(engine pdf.Engine) *Scanner {
	if engine == nil {
		engine = pdf.SharedEngine()
	}
	return &Scanner{engine: engine}
}

// Scan opens data and checks every page, in order, for each phrase. Phrases
// must already be free of empty entries (see CleanPhrases).
//
// A page that fails to extract is logged and skipped. Only a document that
// cannot be opened returns an error. Scanning stops at the next page boundary
// once opts.Token is cancelled or ctx is done. Cancellation is not an error:
// the partial result is returned and callers tell the cases apart by their
// token.
func (s *Scanner) Scan(ctx context.Context, data []byte, phrases []string, opts Options) (*Result, error) {
	token := AnyOf(opts.Token, ContextToken(ctx))

	doc, err := s.engine.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	totalPages := doc.PageCount()
	matcher := NewMatcher(phrases)
	pageSets := make([][]int, len(phrases))
	scannedPages := 0

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if token.IsCancelled() {
			logger.Info(ctx, "scan cancelled", "scanned_pages", scannedPages, "total_pages", totalPages)
			break
		}

		if opts.OnProgress != nil {
			opts.OnProgress(pageNum, totalPages)
		}

		text, err := doc.PageText(pageNum)
		if err != nil {
			logger.Warn(ctx, "skipping page after extraction failure", "page", pageNum, "error", err)
			continue
		}

		for _, idx := range matcher.Match(text) {
			pageSets[idx] = append(pageSets[idx], pageNum)
		}
		scannedPages = pageNum
	}

	return &Result{
		Matches:      collectMatches(phrases, pageSets),
		TotalPages:   totalPages,
		ScannedPages: scannedPages,
	}, nil
}

func collectMatches(phrases []string, pageSets [][]int) []Match {
	matches := make([]Match, 0, len(phrases))
	for i, pages := range pageSets {
		if len(pages) == 0 {
			continue
		}
		slices.Sort(pages)
		matches = append(matches, Match{Phrase: phrases[i], Pages: slices.Compact(pages)})
	}
	return matches
}

// IsDocumentFailure reports whether err came from a document that could not
// be opened at all.
func IsDocumentFailure(err error) bool {
	return pdf.IsDocumentLevel(err)
}
