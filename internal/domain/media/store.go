// Package media abstracts the object host for audio files and images.
package media

import (
	"context"
	"io"
	"time"
)

// Object is a stored blob descriptor.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the upload host contract. The MinIO implementation lives in
// infrastructure/storage/object.
type Store interface {
	// Put stores the blob under key and returns its descriptor.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)

	// Get opens the blob for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignedURL returns a time-limited download URL.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
