// Package storage persists generated audio files on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"server/internal/domain"
)

// AudioStore keeps synthesized narration files under a single directory and
// hands out safe paths for serving them back.
type AudioStore struct {
	basePath string
}

// NewAudioStore initializes an AudioStore rooted at basePath, creating the
// directory if needed.
func NewAudioStore(basePath string) (*AudioStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &AudioStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *AudioStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write persists the provided bytes at the given file name and returns the
// canonicalized name. Names are cleaned to prevent directory traversal.
func (s *AudioStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return clean, nil
}

// Path resolves a stored file name to its on-disk path for serving. Missing
// files report domain.ErrNotFound.
func (s *AudioStore) Path(name string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(clean))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: audio file %q", domain.ErrNotFound, clean)
		}
		return "", fmt.Errorf("storage: stat file: %w", err)
	}
	return fullPath, nil
}

// sanitizeName normalizes a file name and prevents escaping the storage root.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("storage: file name is required")
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimLeft(name, "/")
	cleaned := filepath.Clean(name)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid file name")
	}
	return cleaned, nil
}
