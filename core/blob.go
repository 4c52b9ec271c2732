package core

import (
	"context"
	"io"
	"time"
)

// BlobStore is any service that can store and serve opaque file objects
// (library resources, video uploads).
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL serving the object directly.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
