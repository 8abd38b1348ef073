package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/sensitive-scan/internal/backend"
	"github.com/a3tai/sensitive-scan/internal/config"
	"github.com/a3tai/sensitive-scan/internal/httpapi"
	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/mcp"
	"github.com/a3tai/sensitive-scan/internal/reminder"
	"github.com/a3tai/sensitive-scan/internal/service"
	"github.com/a3tai/sensitive-scan/internal/storage"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const shutdownTimeout = 5 * time.Second

// setupLogging installs the slog default. Logs always go to stderr so the
// MCP protocol on stdout stays clean in stdio mode.
func setupLogging(cfg *config.Config) {
	logger.Init(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
}

// buildService wires the word and order store, the object store and the
// reminder scheduler into the application service
func buildService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	deps := service.Deps{}

	if cfg.BackendConfigured() {
		deps.Backend = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	} else {
		logger.Warn(ctx, "no backend URL configured, sensitive words and orders are unavailable")
	}

	if cfg.StorageConfigured() {
		store, err := storage.NewMinioStore(&storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		deps.Store = store
	} else {
		logger.Warn(ctx, "no object store configured, uploaded documents are kept in memory")
		deps.Store = storage.NewMemoryStore()
	}

	deps.Scheduler = reminder.New(
		reminder.NewAckStore(reminder.NewFileKV(cfg.AckFile)),
		reminder.WithInterval(cfg.ReminderInterval),
		reminder.WithNotifier(reminder.LogNotifier{Logger: slog.Default()}),
	)

	svc, err := service.New(service.Config{
		PDFDirectory: cfg.PDFDirectory,
		MaxFileSize:  cfg.MaxFileSize,
	}, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

// run starts the reminder loop, the order source and the transport selected
// by cfg. It returns when ctx is done or the transport stops.
func run(ctx context.Context, cfg *config.Config) error {
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Scheduler().Run(ctx)
	})

	// A watched orders file replaces polling the backend for orders
	if cfg.OrdersFile != "" {
		watcher, err := reminder.NewFileWatcher(cfg.OrdersFile, svc.Scheduler())
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	} else {
		g.Go(func() error {
			return svc.SyncOrders(ctx, cfg.ReminderInterval)
		})
	}

	if cfg.IsServerMode() {
		g.Go(func() error {
			defer cancel()
			return serveHTTP(ctx, cfg, svc)
		})
	} else {
		server, err := mcp.NewServer(cfg, svc)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		g.Go(func() error {
			defer cancel()
			return server.Run(ctx)
		})
	}

	return g.Wait()
}

// serveHTTP runs the REST API until ctx is done, then shuts down gracefully
func serveHTTP(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	router := httpapi.NewRouter(httpapi.NewHandler(svc, cfg.ServerName, cfg.Version))

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logger.Info(ctx, "server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info(ctx, "server exited gracefully")
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	setupLogging(cfg)
	slog.Debug("starting with configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("sensitive-scan stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("sensitive-scan\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
