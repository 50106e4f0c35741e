// Package local implements the snapshot store on the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/queue"
	"github.com/fredjeong/news-data-processing/internal/snapshot"
)

// Config captures the parameters for the local snapshot store.
type Config struct {
	// BaseDir is the directory snapshot files are written to.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store writes one JSON file per record under a base directory.
type Store struct {
	baseDir string
}

// New creates the store, creating the base directory if needed and verifying
// it is writable up front so misconfiguration fails at startup, not mid-run.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	probe := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("remove probe file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Save writes the record as JSON and returns a file:// URI.
func (s *Store) Save(_ context.Context, rec article.Record) (string, error) {
	data, err := queue.Encode(rec)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, snapshot.ObjectPath(rec))
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return "file://" + fullPath, nil
}
