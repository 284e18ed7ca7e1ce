// Package storage archives finished recordings outside the temp area.
//
// A FileStore is either a directory on the device or an S3-compatible bucket.
// Paths are forward-slash separated and relative to the store root.
package storage

import (
	"context"
	"io"
)

// FileStore is a minimal object store. Implementations must be safe for
// concurrent use.
type FileStore interface {
	// Put stores the content of r at path, replacing any existing object.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Open returns the object at path. Missing objects yield an error
	// wrapping os.ErrNotExist. The caller closes the reader.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the object exists.
	Exists(ctx context.Context, path string) (bool, error)
}
