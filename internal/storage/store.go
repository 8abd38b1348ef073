// Package storage keeps uploaded PDF documents in an object store.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when no object exists under the requested key
var ErrObjectNotFound = errors.New("object not found")

// UploadPrefix is the key prefix of every uploaded document
const UploadPrefix = "uploads/"

// Object describes a stored document. URL is the direct object URL when the
// store has one; it is only reachable if the bucket policy allows reads.
type Object struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url,omitempty"`
}

// Store is an object store for uploaded documents
type Store interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ObjectKey returns a fresh key for filename: uploads/<uuid>/<base name>
func ObjectKey(filename string) string {
	return UploadPrefix + uuid.New().String() + "/" + cleanName(filename)
}

// NameFromKey returns the original file name encoded in an object key
func NameFromKey(key string) string {
	return path.Base(key)
}

func cleanName(filename string) string {
	name := strings.ReplaceAll(filename, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	return name
}
