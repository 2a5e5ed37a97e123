package domain

import (
	"context"
	"io"
)

// BlobWriter uploads objects to cold storage. Archive files are written
// through this interface so the trim pipeline stays independent of the
// storage provider.
type BlobWriter interface {
	// Put uploads data under the given key with the given content type.
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	// PutMultipart uploads data in parts of partSize bytes, for payloads too
	// large for a single request.
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
