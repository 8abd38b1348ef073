package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/sensitive-scan/internal/reminder"
)

func newTestClient(url string) *Client {
	return NewClient(url, time.Second, WithRetry(3, time.Millisecond))
}

func TestClient_ListWords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/words", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 4, "word": "confidential"}, {"id": 9, "word": "secret plan"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	words, err := client.ListWords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Word{{ID: 4, Text: "confidential"}, {ID: 9, Text: "secret plan"}}, words)
}

func TestClient_ListWords_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	words, err := newTestClient(server.URL).ListWords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, words)
	assert.Empty(t, words)
}

func TestClient_WordWrites(t *testing.T) {
	type call struct {
		method, path, word string
	}
	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body wordRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls = append(calls, call{r.Method, r.URL.Path, body.Word})
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id": 12}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	id, err := client.AddWord(ctx, "  classified ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, client.UpdateWord(ctx, 12, "top secret"))
	require.NoError(t, client.RemoveWord(ctx, 12))

	assert.Equal(t, []call{
		{"POST", "/words", "classified"},
		{"PUT", "/words/12", "top secret"},
		{"DELETE", "/words/12", ""},
	}, calls)
}

func TestClient_ListOrders_AssignsPositionalIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"orderNumber": "A-1", "bookTitle": "Go", "reminderDate": "2024-05-01T09:00"},
			{"orderNumber": "A-2", "bookTitle": "Rust", "reminderDate": ""}
		]`))
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, 0, orders[0].ID)
	assert.Equal(t, 1, orders[1].ID)
	assert.Equal(t, "2024-05-01T09:00", orders[0].ReminderDate)
}

func TestClient_OrderWrites(t *testing.T) {
	var gotBody map[string]any
	var gotPaths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"id": 3}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"orderNumber": "X", "bookTitle": "Book"}`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	id, err := client.CreateOrder(ctx, reminder.Order{ID: 99, OrderNumber: "X", BookTitle: "Book"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NotContains(t, gotBody, "id")
	assert.Equal(t, "X", gotBody["orderNumber"])

	order, err := client.GetOrder(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, order.ID)
	assert.Equal(t, "Book", order.BookTitle)

	require.NoError(t, client.UpdateOrder(ctx, 3, order))
	require.NoError(t, client.DeleteOrder(ctx, 3))

	assert.Equal(t, []string{"POST /orders", "GET /orders/3", "PUT /orders/3", "DELETE /orders/3"}, gotPaths)
}

func TestClient_NotFound(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOrder(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load(), "not found must not be retried")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "word": "secret"}]`))
	}))
	defer server.Close()

	words, err := newTestClient(server.URL).ListWords(context.Background())
	require.NoError(t, err)
	assert.Len(t, words, 1)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListWords(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "boom", statusErr.Body)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_WritesAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).AddWord(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).ListWords(ctx)
	assert.Error(t, err)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("", 0)
	assert.False(t, client.Configured())

	_, err := client.ListWords(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
