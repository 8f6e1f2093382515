package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists export artifacts (composite images, statistics
// files) and returns a location the caller can hand back to clients.
type ArtifactStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type localArtifactStore struct {
	dir string
}

// NewLocalArtifactStore creates an artifact store that writes files under
// dir, creating it if needed.
func NewLocalArtifactStore(dir string) (ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &localArtifactStore{dir: dir}, nil
}

func (s *localArtifactStore) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}
