package models

import "time"

// Blob is an immutable stored content object identified by its sha256
// digest within a project. Secondary digests are recomputed on demand.
type Blob struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	BlobKey   string    `json:"blob_key"`
	CreatedAt time.Time `json:"created_at"`
}
