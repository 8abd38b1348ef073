package testutil

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPDF_Structure(t *testing.T) {
	data := BuildPDF("first page", "", "a (b) c")

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
	assert.Contains(t, string(data), "/Count 3")
	assert.Contains(t, string(data), `(a \(b\) c) Tj`)
}

func TestBuildPDF_XrefOffsetsPointAtObjects(t *testing.T) {
	data := BuildPDF("hello")

	idx := bytes.LastIndex(data, []byte("startxref\n"))
	assert.Greater(t, idx, 0)

	xref := bytes.Index(data, []byte("xref\n0 "))
	assert.Greater(t, xref, 0)

	// every "n" entry must point at "<num> 0 obj"
	entries := bytes.Split(data[xref:], []byte("\n"))[3:]
	for i, entry := range entries {
		if !bytes.HasSuffix(entry, []byte(" n ")) {
			break
		}
		off, err := strconv.Atoi(string(entry[:10]))
		assert.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data[off:], []byte(strconv.Itoa(i+1)+" 0 obj")), "entry %d", i+1)
	}
}
