// Package service wires document scanning, the word and order stores, the
// object store and the reminder scheduler behind one API used by the MCP
// tools and the REST handlers.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/sensitive-scan/internal/backend"
	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/pdf"
	"github.com/a3tai/sensitive-scan/internal/pdf/security"
	"github.com/a3tai/sensitive-scan/internal/reminder"
	"github.com/a3tai/sensitive-scan/internal/scan"
	"github.com/a3tai/sensitive-scan/internal/storage"
)

var (
	// ErrStorageUnavailable is returned when no object store is configured
	ErrStorageUnavailable = errors.New("object storage not configured")

	// ErrNoPhraseSource is returned when no phrases were given and no word store is configured
	ErrNoPhraseSource = errors.New("no phrases given and no word store configured")

	// ErrInvalidInput is returned for word or order writes with missing fields
	ErrInvalidInput = errors.New("invalid input")
)

// Backend is the word and order store
type Backend interface {
	ListWords(ctx context.Context) ([]backend.Word, error)
	AddWord(ctx context.Context, word string) (int64, error)
	UpdateWord(ctx context.Context, id int64, word string) error
	RemoveWord(ctx context.Context, id int64) error

	ListOrders(ctx context.Context) ([]reminder.Order, error)
	GetOrder(ctx context.Context, id int64) (reminder.Order, error)
	CreateOrder(ctx context.Context, order reminder.Order) (int64, error)
	UpdateOrder(ctx context.Context, id int64, order reminder.Order) error
	DeleteOrder(ctx context.Context, id int64) error
}

// Config holds the service settings taken from the application config
type Config struct {
	PDFDirectory string
	MaxFileSize  int64
}

// Deps are the collaborators of the service. Engine defaults to the shared
// engine; Backend and Store may be nil when not configured.
type Deps struct {
	Engine    pdf.Engine
	Backend   Backend
	Store     storage.Store
	Scheduler *reminder.Scheduler
}

// Service is the application facade
type Service struct {
	maxFileSize int64
	scanner     *scan.Scanner
	inspector   *pdf.Inspector
	search      *pdf.Search
	paths       *security.PathValidator
	backend     Backend
	store       storage.Store
	scheduler   *reminder.Scheduler
	jobs        *Jobs
}

// New creates the service
func New(cfg Config, deps Deps) (*Service, error) {
	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = reminder.New(reminder.NewAckStore(reminder.NewMemoryKV()))
	}

	return &Service{
		maxFileSize: cfg.MaxFileSize,
		scanner:     scan.NewScanner(deps.Engine),
		inspector:   pdf.NewInspector(),
		search:      pdf.NewSearch(cfg.MaxFileSize),
		paths:       paths,
		backend:     deps.Backend,
		store:       deps.Store,
		scheduler:   scheduler,
		jobs:        NewJobs(),
	}, nil
}

// Directory returns the configured document directory
func (s *Service) Directory() string {
	return s.paths.GetConfiguredDirectory()
}

// MaxFileSize returns the file size limit
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Scheduler returns the reminder scheduler
func (s *Service) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

// BackendConfigured reports whether a word and order store is available
func (s *Service) BackendConfigured() bool {
	return s.backend != nil
}

// StorageConfigured reports whether an object store is available
func (s *Service) StorageConfigured() bool {
	return s.store != nil
}

// Phrases returns the phrases to scan for. A nil list selects every word in
// the word store; any other list is used as given, minus blank entries.
func (s *Service) Phrases(ctx context.Context, phrases []string) ([]string, error) {
	if phrases != nil {
		return scan.CleanPhrases(phrases), nil
	}
	if s.backend == nil {
		return nil, ErrNoPhraseSource
	}

	words, err := s.backend.ListWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sensitive words: %w", err)
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return scan.CleanPhrases(texts), nil
}

// ScanBytes scans an in-memory document for phrases. Documents above the
// size limit are scanned anyway after a warning.
func (s *Service) ScanBytes(ctx context.Context, name string, data []byte, phrases []string, opts scan.Options) (*scan.Result, error) {
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		logger.Warn(ctx, "document exceeds recommended size, scanning anyway",
			"name", name, "size", len(data), "max_size", s.maxFileSize)
	}

	logger.Info(ctx, "scan started", "name", name, "size", len(data), "phrases", len(phrases))
	result, err := s.scanner.Scan(ctx, data, phrases, opts)
	if err != nil {
		if scan.IsDocumentFailure(err) && s.isEncrypted(data) {
			err = fmt.Errorf("%w: %w", pdf.ErrEncrypted, err)
		}
		logger.Error(ctx, "scan failed", "name", name, "error", err)
		return nil, err
	}

	logger.Info(ctx, "scan finished", "name", name, "matches", len(result.Matches),
		"scanned_pages", result.ScannedPages, "total_pages", result.TotalPages)
	return result, nil
}

func (s *Service) isEncrypted(data []byte) bool {
	_, err := s.inspector.Inspect(data)
	return errors.Is(err, pdf.ErrEncrypted)
}

// ScanFile scans a PDF inside the document directory. Files above the size
// limit are rejected.
func (s *Service) ScanFile(ctx context.Context, path string, phrases []string) (*scan.Result, error) {
	data, resolved, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	phrases, err = s.Phrases(ctx, phrases)
	if err != nil {
		return nil, err
	}
	return s.ScanBytes(ctx, resolved, data, phrases, scan.Options{Token: scan.ContextToken(ctx)})
}

// ScanObject scans a document stored in the object store
func (s *Service) ScanObject(ctx context.Context, key string, phrases []string) (*scan.Result, error) {
	data, err := s.GetDocument(ctx, key)
	if err != nil {
		return nil, err
	}
	phrases, err = s.Phrases(ctx, phrases)
	if err != nil {
		return nil, err
	}
	return s.ScanBytes(ctx, key, data, phrases, scan.Options{Token: scan.ContextToken(ctx)})
}

// StartScan runs a scan in the background and returns its job. The scan
// outlives ctx; it stops only when cancelled through CancelScan.
func (s *Service) StartScan(ctx context.Context, name string, data []byte, phrases []string) (Job, error) {
	phrases, err := s.Phrases(ctx, phrases)
	if err != nil {
		return Job{}, err
	}

	entry := s.jobs.create(name)
	job := entry.snapshot()
	jobCtx := context.WithValue(context.WithoutCancel(ctx), logger.ScanIDKey, job.ID)

	s.jobs.wg.Add(1)
	go func() {
		defer s.jobs.wg.Done()
		result, err := s.ScanBytes(jobCtx, name, data, phrases, scan.Options{
			Token:      entry.flag,
			OnProgress: entry.progress,
		})
		entry.finish(result, err)
	}()

	return job, nil
}

// ScanJob returns the state of a scan job
func (s *Service) ScanJob(id string) (Job, error) {
	return s.jobs.Get(id)
}

// ScanJobs returns every known scan job, oldest first
func (s *Service) ScanJobs() []Job {
	return s.jobs.List()
}

// CancelScan requests cancellation of a scan job
func (s *Service) CancelScan(ctx context.Context, id string) (Job, error) {
	job, err := s.jobs.Cancel(id)
	if err != nil {
		return Job{}, err
	}
	logger.Info(ctx, "scan cancellation requested", "job_id", id, "state", job.State)
	return job, nil
}

// WaitScans blocks until every background scan has finished
func (s *Service) WaitScans() {
	s.jobs.Wait()
}

// Inspect reports structural information about a PDF in the document directory
func (s *Service) Inspect(path string) (*pdf.DocumentInfo, error) {
	data, _, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	return s.inspector.Inspect(data)
}

// ListFiles lists PDFs in the document directory whose name matches query
func (s *Service) ListFiles(query string, limit int) ([]pdf.FileInfo, error) {
	return s.search.FindPDFs(s.Directory(), query, limit)
}

func (s *Service) readFile(path string) ([]byte, string, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, "", fmt.Errorf("security validation failed: %w", err)
	}
	data, err := pdf.ReadFile(resolved, s.maxFileSize)
	if err != nil {
		return nil, "", err
	}
	return data, resolved, nil
}
