package blobstore

import (
	"context"
	"io"
)

// PutResult describes one persisted blob payload.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	BlobKey   string
}

// BlobStore is the byte-storage abstraction behind the registry blob
// service. Keys are content-addressed within a project scope and stable
// across processes. Scoping keys by project keeps deletes local: removing
// one project's blob can never take bytes away from another.
type BlobStore interface {
	Put(ctx context.Context, project string, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Size(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}
