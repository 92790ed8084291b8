package storage

import (
	"context"
	"io"
)

// Store keeps small blobs, such as upload drafts, under slash-separated
// keys. Get and Delete report ErrNotExist for unknown keys.
type Store interface {
	// Save replaces the blob at key and returns the number of bytes written.
	Save(ctx context.Context, key string, reader io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
