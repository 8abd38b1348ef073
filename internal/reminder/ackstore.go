package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

// AckStorageKey is the KV key holding the JSON array of acknowledged reminder keys
const AckStorageKey = "acknowledgedReminders"

// AckStore persists acknowledged reminder keys in a KV store.
// Reads never fail: an unavailable or corrupt store reads as empty.
type AckStore struct {
	kv KV
}

// NewAckStore creates an acknowledgment store. A nil kv behaves as an
// always-empty store that rejects writes.
func NewAckStore(kv KV) *AckStore {
	return &AckStore{kv: kv}
}

// Load returns the acknowledged keys
func (a *AckStore) Load(ctx context.Context) map[string]struct{} {
	keys := a.keys(ctx)
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Acknowledge adds key to the stored set
func (a *AckStore) Acknowledge(ctx context.Context, key string) error {
	if a.kv == nil {
		return fmt.Errorf("acknowledgment store unavailable")
	}

	keys := a.keys(ctx)
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	keys = append(keys, key)

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode acknowledgments: %w", err)
	}
	if err := a.kv.Set(AckStorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to store acknowledgments: %w", err)
	}
	return nil
}

// keys returns stored keys in insertion order
func (a *AckStore) keys(ctx context.Context) []string {
	if a.kv == nil {
		logger.Warn(ctx, "acknowledgment store unavailable")
		return nil
	}

	raw, ok, err := a.kv.Get(AckStorageKey)
	if err != nil {
		logger.Error(ctx, "failed to read acknowledged reminders", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Error(ctx, "failed to decode acknowledged reminders", "error", err)
		return nil
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}
