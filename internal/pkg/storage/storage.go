package storage

import (
	"context"
	"io"
)

// Storage defines the minimal interface for file storage backends.
type Storage interface {
	// Put stores a file at the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes a file by key. Returns nil if the file doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a stored key.
	GetURL(key string) string
}

// Config holds storage backend configuration
type Config struct {
	S3Endpoint  string // optional custom endpoint (MinIO)
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}
