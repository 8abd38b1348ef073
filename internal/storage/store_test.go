package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		filename string
		wantName string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd.pdf", "passwd.pdf"},
		{`C:\Users\me\scan.pdf`, "scan.pdf"},
		{"", "document.pdf"},
		{"  ", "document.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			key := ObjectKey(tt.filename)
			require.True(t, strings.HasPrefix(key, UploadPrefix), key)

			parts := strings.Split(strings.TrimPrefix(key, UploadPrefix), "/")
			require.Len(t, parts, 2, key)
			_, err := uuid.Parse(parts[0])
			assert.NoError(t, err)
			assert.Equal(t, tt.wantName, parts[1])
			assert.Equal(t, tt.wantName, NameFromKey(key))
		})
	}
}

func TestObjectKey_Unique(t *testing.T) {
	assert.NotEqual(t, ObjectKey("a.pdf"), ObjectKey("a.pdf"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	obj, err := store.Upload(ctx, "contract.pdf", []byte("%PDF-1.4 data"), "")
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", obj.Name)
	assert.Equal(t, int64(13), obj.Size)
	assert.Equal(t, "application/pdf", obj.ContentType)

	data, err := store.Get(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 data"), data)

	_, err = store.Get(ctx, "uploads/missing/x.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.Upload(ctx, "other.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	all, err := store.List(ctx, UploadPrefix)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := store.List(ctx, "archive/")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
