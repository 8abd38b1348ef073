package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/sensitive-scan/internal/config"
)

const testVersion = "1.2.3"

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2024-05-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	output := captureStdout(t, printVersion)

	for _, expected := range []string{
		"sensitive-scan",
		"Version: " + testVersion,
		"Build Time: 2024-05-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestSetupLogging(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	setupLogging(&config.Config{Mode: config.ModeStdio, LogLevel: "debug", LogFormat: "json"})
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	setupLogging(&config.Config{Mode: config.ModeServer, LogLevel: "warn", LogFormat: "text"})
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.AckFile = filepath.Join(t.TempDir(), "acks.json")
	cfg.LogLevel = "error"
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestBuildService_Defaults(t *testing.T) {
	cfg := testConfig(t)

	svc, err := buildService(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.PDFDirectory, svc.Directory())
	assert.False(t, svc.BackendConfigured())
	assert.True(t, svc.StorageConfigured())
	assert.Equal(t, cfg.ReminderInterval, svc.Scheduler().Interval())
}

func TestBuildService_Backend(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackendURL = "http://127.0.0.1:1"

	svc, err := buildService(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, svc.BackendConfigured())
}

func TestRun_ServerModeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = config.ModeServer
	cfg.Port = freePort(t)

	ordersFile := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(ordersFile, []byte("- orderNumber: A-1\n"), 0o600))
	cfg.OrdersFile = ordersFile

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestServeHTTP_AddressInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig(t)
	cfg.Mode = config.ModeServer
	cfg.Port = l.Addr().(*net.TCPAddr).Port

	svc, err := buildService(context.Background(), cfg)
	require.NoError(t, err)

	err = serveHTTP(context.Background(), cfg, svc)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to start server"))
}
