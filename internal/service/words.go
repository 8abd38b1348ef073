package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/a3tai/sensitive-scan/internal/backend"
	"github.com/a3tai/sensitive-scan/internal/logger"
)

// Words returns the stored sensitive words
func (s *Service) Words(ctx context.Context) ([]backend.Word, error) {
	if s.backend == nil {
		return nil, backend.ErrNotConfigured
	}
	return s.backend.ListWords(ctx)
}

// AddWord stores a new sensitive word or phrase
func (s *Service) AddWord(ctx context.Context, word string) (backend.Word, error) {
	if s.backend == nil {
		return backend.Word{}, backend.ErrNotConfigured
	}
	word, err := validateWord(word)
	if err != nil {
		return backend.Word{}, err
	}

	id, err := s.backend.AddWord(ctx, word)
	if err != nil {
		return backend.Word{}, fmt.Errorf("failed to add word: %w", err)
	}
	logger.Info(ctx, "word added", "id", id)
	return backend.Word{ID: id, Text: word}, nil
}

// UpdateWord replaces the text of the word with id
func (s *Service) UpdateWord(ctx context.Context, id int64, word string) (backend.Word, error) {
	if s.backend == nil {
		return backend.Word{}, backend.ErrNotConfigured
	}
	word, err := validateWord(word)
	if err != nil {
		return backend.Word{}, err
	}

	if err := s.backend.UpdateWord(ctx, id, word); err != nil {
		return backend.Word{}, fmt.Errorf("failed to update word %d: %w", id, err)
	}
	logger.Info(ctx, "word updated", "id", id)
	return backend.Word{ID: id, Text: word}, nil
}

// RemoveWord deletes the word with id
func (s *Service) RemoveWord(ctx context.Context, id int64) error {
	if s.backend == nil {
		return backend.ErrNotConfigured
	}
	if err := s.backend.RemoveWord(ctx, id); err != nil {
		return fmt.Errorf("failed to remove word %d: %w", id, err)
	}
	logger.Info(ctx, "word removed", "id", id)
	return nil
}

func validateWord(word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", fmt.Errorf("%w: word must not be empty", ErrInvalidInput)
	}
	return word, nil
}
