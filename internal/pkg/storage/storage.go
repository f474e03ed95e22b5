package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the object does not exist
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that could escape the storage root
var ErrInvalidKey = errors.New("invalid object key")

// Storage defines the interface for image storage backends.
// Keys are flat object names such as "1718000000000-ab12cd34.jpg".
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]ObjectInfo, error)
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Config holds backend settings
type Config struct {
	Driver    string // local or s3
	LocalPath string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// New builds the backend selected by cfg.Driver
func New(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(cfg)
	case "", "local":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}

// ValidKey reports whether key is a plain object name
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.Contains(key, "..")
}
