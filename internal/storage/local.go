package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// LocalBackend implements the Backend interface for local filesystem storage
type LocalBackend struct {
	basePath string
	logger   zerolog.Logger
}

// NewLocalBackend creates a new local filesystem storage backend rooted at basePath
func NewLocalBackend(basePath string, logger zerolog.Logger) (*LocalBackend, error) {
	if basePath == "" {
		basePath = "."
	}
	// Absolute path keeps filepath.Rel stable during List
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalBackend{
		basePath: absPath,
		logger:   logger.With().Str("component", "local-storage").Logger(),
	}, nil
}

// Write writes data atomically: to a temp file in the target directory, then renamed into place
func (b *LocalBackend) Write(ctx context.Context, key string, data []byte) error {
	fullPath, err := b.validatePath(key)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tsmigrate-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	// Migrations are meant to be read and committed by humans
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	b.logger.Debug().Str("key", key).Int("size", len(data)).Msg("Wrote file")
	return nil
}

// Read reads the file at key
func (b *LocalBackend) Read(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := b.validatePath(key)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// List walks the directory under prefix and returns file keys, skipping temp files
func (b *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	root, err := b.validatePath(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix: %w", err)
	}
	// A prefix may name a directory or the start of a file name
	walkRoot := root
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		walkRoot = filepath.Dir(root)
	}

	var keys []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tsmigrate-") {
			return nil
		}
		rel, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, sanitizePath(prefix)) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	slices.Sort(keys)
	return keys, nil
}

// Exists checks if a file exists at key
func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := b.validatePath(key)
	if err != nil {
		return false, fmt.Errorf("invalid path: %w", err)
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat file: %w", err)
}

// Delete removes the file at key
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	fullPath, err := b.validatePath(key)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	b.logger.Debug().Str("key", key).Msg("Deleted file")
	return nil
}

// Close is a no-op for the local backend
func (b *LocalBackend) Close() error {
	return nil
}

// BasePath returns the absolute root directory
func (b *LocalBackend) BasePath() string {
	return b.basePath
}

// Type returns "local"
func (b *LocalBackend) Type() string {
	return "local"
}

// sanitizePath normalizes a key to forward slashes without a leading slash
func sanitizePath(key string) string {
	key = filepath.ToSlash(key)
	return strings.TrimLeft(key, "/")
}

// validatePath resolves key under the base path and rejects keys escaping it
func (b *LocalBackend) validatePath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(sanitizePath(key)))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", key)
	}
	fullPath := filepath.Join(b.basePath, clean)
	rel, err := filepath.Rel(b.basePath, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", key)
	}
	return fullPath, nil
}
