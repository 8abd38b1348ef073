package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

const ordersSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["orderNumber"],
    "properties": {
      "orderNumber":    {"type": "string"},
      "bookTitle":      {"type": "string"},
      "transferEntity": {"type": "string"},
      "transferDate":   {"type": "string"},
      "reminderDate":   {"type": "string"},
      "notes":          {"type": "string"}
    }
  }
}`

func compileOrdersSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("orders.json", bytes.NewReader([]byte(ordersSchema))); err != nil {
		return nil, fmt.Errorf("failed to load orders schema: %w", err)
	}
	schema, err := compiler.Compile("orders.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile orders schema: %w", err)
	}
	return schema, nil
}

// ParseOrders decodes an order snapshot. The snapshot is a YAML or JSON list
// of orders; IDs are assigned from list positions.
func ParseOrders(data []byte) ([]Order, error) {
	schema, err := compileOrdersSchema()
	if err != nil {
		return nil, err
	}
	return parseOrders(schema, data)
}

func parseOrders(schema *jsonschema.Schema, data []byte) ([]Order, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	if raw == nil {
		return []Order{}, nil
	}

	// validate the JSON form so YAML and JSON snapshots follow the same rules
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize orders: %w", err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("failed to normalize orders: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("orders do not match schema: %w", err)
	}

	var orders []Order
	if err := json.Unmarshal(encoded, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return OrdersWithIDs(orders), nil
}

// FileWatcher feeds a scheduler from an order snapshot file and reloads it
// whenever the file changes.
type FileWatcher struct {
	path      string
	scheduler *Scheduler
	schema    *jsonschema.Schema
}

// NewFileWatcher creates a watcher for the snapshot file at path
func NewFileWatcher(path string, scheduler *Scheduler) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve orders file: %w", err)
	}
	schema, err := compileOrdersSchema()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{path: abs, scheduler: scheduler, schema: schema}, nil
}

// Load reads the snapshot file and hands it to the scheduler
func (w *FileWatcher) Load(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read orders file: %w", err)
	}
	orders, err := parseOrders(w.schema, data)
	if err != nil {
		return err
	}

	logger.Info(ctx, "orders snapshot loaded", "path", w.path, "orders", len(orders))
	w.scheduler.SetOrders(ctx, orders)
	return nil
}

// Run loads the file once and then reloads it on every change until ctx is
// done. A snapshot that fails to load is logged and the previous one is kept.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	if err := w.Load(ctx); err != nil {
		logger.Warn(ctx, "initial orders snapshot not loaded", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.Load(ctx); err != nil {
				logger.Warn(ctx, "orders snapshot reload failed", "path", w.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "orders file watcher error", "error", err)
		}
	}
}
