package service

import (
	"context"
	"fmt"

	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/pdf"
	"github.com/a3tai/sensitive-scan/internal/storage"
)

// UploadDocument stores a PDF in the object store
func (s *Service) UploadDocument(ctx context.Context, filename string, data []byte) (storage.Object, error) {
	if s.store == nil {
		return storage.Object{}, ErrStorageUnavailable
	}
	if !pdf.IsPDF(data) {
		return storage.Object{}, fmt.Errorf("%w: %s", pdf.ErrNotPDF, filename)
	}

	obj, err := s.store.Upload(ctx, filename, data, "application/pdf")
	if err != nil {
		return storage.Object{}, err
	}
	logger.Info(ctx, "document uploaded", "key", obj.Key, "size", obj.Size)
	return obj, nil
}

// Documents lists uploaded documents
func (s *Service) Documents(ctx context.Context) ([]storage.Object, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	return s.store.List(ctx, storage.UploadPrefix)
}

// GetDocument returns the content of an uploaded document
func (s *Service) GetDocument(ctx context.Context, key string) ([]byte, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	return s.store.Get(ctx, key)
}
