// Package storage is the artifact store for committed snapshots and generated migrations.
// Objects are addressed by slash-separated keys relative to the store root.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Read when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Backend defines the interface for storage backends (local, S3, Azure Blob)
type Backend interface {
	// Write stores data at key, replacing any existing object
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the object at key, or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object exists at key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend
	Close() error

	// Type returns the storage type identifier ("local", "s3", "azure")
	Type() string
}

// Config selects and configures a backend.
type Config struct {
	Backend   string
	LocalPath string
	S3        S3Config
	Azure     AzureBlobConfig
}

// New creates the backend named by cfg.Backend.
func New(ctx context.Context, cfg *Config, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalBackend(cfg.LocalPath, logger)
	case "s3", "minio":
		return NewS3Backend(ctx, &cfg.S3, logger)
	case "azure", "azblob":
		return NewAzureBlobBackend(ctx, &cfg.Azure, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
