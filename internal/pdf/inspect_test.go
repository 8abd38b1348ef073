package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/sensitive-scan/internal/testutil"
)

func TestInspector_Inspect(t *testing.T) {
	data := testutil.BuildPDF("one", "two", "three")

	info, err := NewInspector().Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Pages)
	assert.False(t, info.Encrypted)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.NotEmpty(t, info.Version)
}

func TestInspector_RejectsNonPDF(t *testing.T) {
	_, err := NewInspector().Inspect([]byte("not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
}
