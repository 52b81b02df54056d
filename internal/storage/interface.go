package storage

import (
	"context"
	"io"
)

// ObjectStorage stores post images.
type ObjectStorage interface {
	// EnsureBucket creates the bucket when the backend allows it.
	EnsureBucket(ctx context.Context) error

	// Upload stores an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL of an object.
	GetURL(key string) string

	// KeyFromURL maps a public URL produced by GetURL back to its key.
	// ok is false for URLs this storage did not produce.
	KeyFromURL(url string) (key string, ok bool)
}
