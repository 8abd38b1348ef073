package pdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/sensitive-scan/internal/testutil"
)

func TestSharedEngine_IsMemoized(t *testing.T) {
	first := SharedEngine()
	second := SharedEngine()
	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestLedongthucEngine_PageText(t *testing.T) {
	data := testutil.BuildPDF(
		"this is confidential",
		"",
		"the secret plan\nrevealed today",
	)

	doc, err := NewLedongthucEngine().Open(data)
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())

	text, err := doc.PageText(1)
	require.NoError(t, err)
	assert.Equal(t, "this is confidential", text)

	text, err = doc.PageText(2)
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = doc.PageText(3)
	require.NoError(t, err)
	assert.Equal(t, "the secret plan revealed today", text)
}

func TestLedongthucEngine_PagesDoNotShareText(t *testing.T) {
	doc, err := NewLedongthucEngine().Open(testutil.BuildPDF("alpha", "beta"))
	require.NoError(t, err)

	first, err := doc.PageText(1)
	require.NoError(t, err)
	second, err := doc.PageText(2)
	require.NoError(t, err)

	assert.NotContains(t, second, "alpha")
	assert.NotContains(t, first, "beta")
}

func TestLedongthucEngine_InvalidPage(t *testing.T) {
	doc, err := NewLedongthucEngine().Open(testutil.BuildPDF("only page"))
	require.NoError(t, err)

	for _, pageNum := range []int{0, -1, 2} {
		_, err := doc.PageText(pageNum)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPage), "page %d", pageNum)
		assert.False(t, IsDocumentLevel(err))
	}
}

func TestLedongthucEngine_OpenFailures(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{name: "empty", data: nil, target: ErrNotPDF},
		{name: "not a pdf", data: []byte("hello world"), target: ErrNotPDF},
		{name: "truncated pdf", data: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"), target: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewLedongthucEngine().Open(tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, IsDocumentLevel(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestExtractionError_Message(t *testing.T) {
	docErr := &ExtractionError{Op: "open", Err: ErrNotPDF}
	assert.Equal(t, "pdf open failed: not a PDF document", docErr.Error())

	pageErr := &ExtractionError{Op: "page_text", Page: 4, Err: errors.New("bad stream")}
	assert.Equal(t, "pdf page_text failed on page 4: bad stream", pageErr.Error())
	assert.False(t, IsDocumentLevel(pageErr))
	assert.False(t, IsDocumentLevel(errors.New("plain")))
}
