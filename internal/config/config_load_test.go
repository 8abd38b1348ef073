package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load([]string{"--dir", dir})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != ModeStdio {
		t.Errorf("Mode = %v, want stdio", cfg.Mode)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %v, want %v", cfg.Port, DefaultPort)
	}
	if cfg.PDFDirectory != dir {
		t.Errorf("PDFDirectory = %v, want %v", cfg.PDFDirectory, dir)
	}
	if cfg.ReminderInterval != DefaultReminderInterval {
		t.Errorf("ReminderInterval = %v, want %v", cfg.ReminderInterval, DefaultReminderInterval)
	}
}

func TestLoad_Flags(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load([]string{
		"--mode=server",
		"--host=0.0.0.0",
		"--port=9090",
		"--dir=" + dir,
		"--log-level=debug",
		"--log-format=json",
		"--max-file-size=2048",
		"--backend-url=http://localhost:5000/",
		"--backend-timeout=5s",
		"--reminder-interval=30s",
		"--orders-file=/tmp/orders.yaml",
		"--storage-endpoint=localhost:9000",
		"--storage-bucket=docs",
		"--storage-use-ssl",
	})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != ModeServer || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
		t.Errorf("server settings = %s %s:%d", cfg.Mode, cfg.Host, cfg.Port)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.MaxFileSize != 2048 {
		t.Errorf("MaxFileSize = %d, want 2048", cfg.MaxFileSize)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("BackendURL = %s, want trailing slash trimmed", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 5*time.Second || cfg.ReminderInterval != 30*time.Second {
		t.Errorf("durations = %s/%s", cfg.BackendTimeout, cfg.ReminderInterval)
	}
	if cfg.OrdersFile != "/tmp/orders.yaml" {
		t.Errorf("OrdersFile = %s", cfg.OrdersFile)
	}
	if !cfg.StorageConfigured() || cfg.Storage.Bucket != "docs" || !cfg.Storage.UseSSL {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SENSITIVE_SCAN_DIR", dir)
	t.Setenv("SENSITIVE_SCAN_MODE", "server")
	t.Setenv("SENSITIVE_SCAN_PORT", "7070")
	t.Setenv("SENSITIVE_SCAN_BACKEND_URL", "http://backend:5000")
	t.Setenv("SENSITIVE_SCAN_STORAGE_ENDPOINT", "minio:9000")
	t.Setenv("SENSITIVE_SCAN_STORAGE_SECRET_KEY", "secret")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.PDFDirectory != dir {
		t.Errorf("PDFDirectory = %s, want %s", cfg.PDFDirectory, dir)
	}
	if cfg.Mode != ModeServer || cfg.Port != 7070 {
		t.Errorf("server settings = %s :%d", cfg.Mode, cfg.Port)
	}
	if cfg.BackendURL != "http://backend:5000" {
		t.Errorf("BackendURL = %s", cfg.BackendURL)
	}
	if cfg.Storage.Endpoint != "minio:9000" || cfg.Storage.SecretKey != "secret" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SENSITIVE_SCAN_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"--dir", t.TempDir(), "--log-level", "error"})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %s, want error", cfg.LogLevel)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mode: server\n" +
		"port: 8181\n" +
		"dir: " + dir + "\n" +
		"reminder-interval: 2m\n" +
		"storage:\n" +
		"  endpoint: files:9000\n" +
		"  bucket: archive\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"--config", path, "--port", "8282"})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != ModeServer {
		t.Errorf("Mode = %s, want server", cfg.Mode)
	}
	if cfg.Port != 8282 {
		t.Errorf("Port = %d, want flag value 8282", cfg.Port)
	}
	if cfg.PDFDirectory != dir {
		t.Errorf("PDFDirectory = %s, want %s", cfg.PDFDirectory, dir)
	}
	if cfg.ReminderInterval != 2*time.Minute {
		t.Errorf("ReminderInterval = %s, want 2m", cfg.ReminderInterval)
	}
	if cfg.Storage.Endpoint != "files:9000" || cfg.Storage.Bucket != "archive" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--no-such-flag"}},
		{"invalid mode", []string{"--mode=invalid"}},
		{"invalid log level", []string{"--log-level=verbose"}},
		{"negative file size", []string{"--max-file-size=-1"}},
		{"missing config file", []string{"--config=/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dir", t.TempDir()}, tt.args...)
			if _, err := Load(args); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestLoad_Version(t *testing.T) {
	for _, arg := range []string{"--version", "-version", "-v"} {
		_, err := Load([]string{arg})
		if !errors.Is(err, ErrVersionRequested) {
			t.Errorf("Load(%s) error = %v, want ErrVersionRequested", arg, err)
		}
	}
}
