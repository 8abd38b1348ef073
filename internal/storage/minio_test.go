package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 implements the few S3 calls the store makes, path-style
type fakeS3 struct {
	mu          sync.Mutex
	buckets     map[string]bool
	objects     map[string][]byte
	failPuts    int
	objectPuts  int
	lastModTime time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:     map[string]bool{},
		objects:     map[string][]byte{},
		lastModTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet:
		f.list(w, bucket, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodPut:
		f.objectPuts++
		if f.failPuts > 0 {
			f.failPuts--
			writeS3Error(w, http.StatusBadRequest, "InvalidArgument", key)
			return
		}
		f.objects[bucket+"/"+key] = readPayload(r)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[bucket+"/"+key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", key)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", f.lastModTime.Format(http.TimeFormat))
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, bucket, prefix string) {
	var keys []string
	for k := range f.objects {
		b, key, _ := strings.Cut(k, "/")
		if b == bucket && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&buf, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount>", bucket, prefix, len(keys))
	buf.WriteString("<MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>")
	for _, key := range keys {
		fmt.Fprintf(&buf, "<Contents><Key>%s</Key><LastModified>%s</LastModified>"+
			"<ETag>&quot;d41d8cd98f00b204e9800998ecf8427e&quot;</ETag><Size>%d</Size>"+
			"<StorageClass>STANDARD</StorageClass></Contents>",
			key, f.lastModTime.Format("2006-01-02T15:04:05.000Z"), len(f.objects[bucket+"/"+key]))
	}
	buf.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(buf.Bytes())
}

func writeS3Error(w http.ResponseWriter, status int, code, key string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><Key>%s</Key></Error>`,
		code, code, key)
}

// readPayload returns the object bytes, decoding aws-chunked bodies
func readPayload(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	if r.Header.Get("X-Amz-Decoded-Content-Length") == "" {
		return body
	}

	var out []byte
	reader := bufio.NewReader(bytes.NewReader(body))
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return out
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil || size == 0 {
			return out
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(reader, chunk); err != nil {
			return out
		}
		out = append(out, chunk...)
		_, _ = reader.ReadString('\n')
	}
}

func newTestStore(t *testing.T, handler http.Handler) *MinioStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	store, err := NewMinioStore(&Config{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "testsecret",
		Bucket:    "documents",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	store.delay = time.Millisecond
	return store
}

func TestMinioStore_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, store.EnsureBucket(ctx))
	assert.True(t, fake.buckets["documents"])
	require.NoError(t, store.EnsureBucket(ctx))

	payload := []byte("%PDF-1.4 fake document body")
	obj, err := store.Upload(ctx, "contract.pdf", payload, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, UploadPrefix))
	assert.Equal(t, "contract.pdf", obj.Name)
	assert.Equal(t, int64(len(payload)), obj.Size)
	assert.Equal(t, "http://"+store.config.Endpoint+"/documents/"+obj.Key, obj.URL)

	data, err := store.Get(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	objects, err := store.List(ctx, UploadPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, obj.Key, objects[0].Key)
	assert.Equal(t, "contract.pdf", objects[0].Name)
	assert.Equal(t, int64(len(payload)), objects[0].Size)
	assert.Equal(t, obj.URL, objects[0].URL)
}

func TestMinioStore_UploadRetries(t *testing.T) {
	fake := newFakeS3()
	fake.buckets["documents"] = true
	fake.failPuts = 2
	store := newTestStore(t, fake)

	_, err := store.Upload(context.Background(), "a.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, fake.objectPuts)
}

func TestMinioStore_UploadGivesUp(t *testing.T) {
	fake := newFakeS3()
	fake.buckets["documents"] = true
	fake.failPuts = 100
	store := newTestStore(t, fake)

	_, err := store.Upload(context.Background(), "a.pdf", []byte("%PDF-1.4"), "application/pdf")
	assert.Error(t, err)
	assert.Equal(t, uploadAttempts, fake.objectPuts)
}

func TestMinioStore_GetMissing(t *testing.T) {
	fake := newFakeS3()
	fake.buckets["documents"] = true
	store := newTestStore(t, fake)

	_, err := store.Get(context.Background(), "uploads/none/x.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMinioStore_GetPublicURL(t *testing.T) {
	tests := []struct {
		name     string
		useSSL   bool
		endpoint string
		bucket   string
		key      string
		expected string
	}{
		{
			name:     "http url",
			endpoint: "localhost:9000",
			bucket:   "documents",
			key:      "uploads/abc/file.pdf",
			expected: "http://localhost:9000/documents/uploads/abc/file.pdf",
		},
		{
			name:     "https url",
			useSSL:   true,
			endpoint: "minio.example.com",
			bucket:   "scans",
			key:      "uploads/def/doc.pdf",
			expected: "https://minio.example.com/scans/uploads/def/doc.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MinioStore{
				bucket: tt.bucket,
				config: &Config{Endpoint: tt.endpoint, UseSSL: tt.useSSL},
			}
			assert.Equal(t, tt.expected, store.GetPublicURL(tt.key))
		})
	}
}
