package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore durably stores rendered report artifacts and returns a
// retrievable URL. Used only on a task's success path.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, name string, content []byte, contentType string) (string, error)
}

// LocalArtifactStore stores artifacts on the local filesystem.
// Replaces S3ArtifactStore for local development.
type LocalArtifactStore struct {
	basePath string
	baseURL  string // Base URL for serving files (e.g., http://localhost:8086/storage)
}

// NewLocalArtifactStore creates a new local artifact store
func NewLocalArtifactStore(basePath, baseURL string) (*LocalArtifactStore, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalArtifactStore{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// SaveArtifact writes the artifact to disk and returns its serving URL
func (s *LocalArtifactStore) SaveArtifact(ctx context.Context, name string, content []byte, contentType string) (string, error) {
	fullPath := filepath.Join(s.basePath, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}
