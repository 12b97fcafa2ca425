package registry

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"packreg/internal/blobstore"
	"packreg/internal/digest"
	"packreg/internal/models"
	"packreg/internal/store"
)

// BlobService is the content-addressable blob store shared by registry
// services: streamed dedup upload, integrity verification with self-heal,
// download, on-demand secondary digests and deletion.
type BlobService struct {
	store  *store.Store
	cas    blobstore.BlobStore
	logger *slog.Logger
}

// NewBlobService constructs a BlobService.
func NewBlobService(st *store.Store, cas blobstore.BlobStore, logger *slog.Logger) *BlobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobService{store: st, cas: cas, logger: logger}
}

// Upload streams r into the CAS and returns the canonical blob row for the
// content within the project scope. Two uploads of identical bytes resolve
// to the same blob.
func (s *BlobService) Upload(ctx context.Context, project string, r io.Reader) (*models.Blob, error) {
	result, err := s.cas.Put(ctx, project, r)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.GetBlobBySHA256(ctx, project, result.SHA256); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	return s.store.InsertBlob(ctx, &models.Blob{
		Project:   project,
		SHA256:    result.SHA256,
		SizeBytes: result.SizeBytes,
		BlobKey:   result.BlobKey,
	})
}

// Verify compares the on-disk length against the recorded length. On
// mismatch the blob record is deleted (self-heal) and false is returned;
// callers answer not-found and a later re-upload repairs the content.
func (s *BlobService) Verify(ctx context.Context, blob *models.Blob) (bool, error) {
	return s.verify(ctx, blob, func(id string) error {
		return s.store.DeleteBlob(ctx, id)
	})
}

// VerifyTx is Verify with the self-heal delete routed through an open
// transaction. The pool is single-connection, so database work inside a
// transaction must not touch the pool directly.
func (s *BlobService) VerifyTx(ctx context.Context, tx *sql.Tx, blob *models.Blob) (bool, error) {
	return s.verify(ctx, blob, func(id string) error {
		return s.store.DeleteBlobTx(ctx, tx, id)
	})
}

func (s *BlobService) verify(ctx context.Context, blob *models.Blob, deleteRecord func(id string) error) (bool, error) {
	if blob == nil {
		return false, fmt.Errorf("blob is required")
	}
	size, err := s.cas.Size(ctx, blob.BlobKey)
	if err == nil && size == blob.SizeBytes {
		return true, nil
	}

	s.logger.Warn("blob failed integrity check, removing record",
		"blob", blob.ID, "sha256", blob.SHA256, "recorded_size", blob.SizeBytes, "disk_size", size, "stat_error", err)
	if err := deleteRecord(blob.ID); err != nil {
		return false, err
	}
	_ = s.cas.Delete(ctx, blob.BlobKey)
	return false, nil
}

// Download streams blob content to w. Callers verify integrity first so
// response headers are settled before the body starts.
func (s *BlobService) Download(ctx context.Context, blob *models.Blob, w io.Writer) error {
	rc, err := s.cas.Open(ctx, blob.BlobKey)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

// SecondaryDigest re-reads the full blob and computes a non-sha256 digest
// on demand. sha256 requests short-circuit to the recorded identity.
func (s *BlobService) SecondaryDigest(ctx context.Context, blob *models.Blob, algo digest.Algorithm) (string, error) {
	if algo == digest.SHA256 {
		return blob.SHA256, nil
	}
	rc, err := s.cas.Open(ctx, blob.BlobKey)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return digest.Compute(rc, algo)
}

// Delete removes the on-disk object and the blob record. Reference
// discipline is the caller's concern; GC only passes zero-reference blobs.
func (s *BlobService) Delete(ctx context.Context, blob *models.Blob) error {
	if blob == nil {
		return fmt.Errorf("blob is required")
	}
	if err := s.store.DeleteBlob(ctx, blob.ID); err != nil {
		return err
	}
	return s.cas.Delete(ctx, blob.BlobKey)
}

// FindBySHA256 looks up the blob row for (project, sha256), or nil.
func (s *BlobService) FindBySHA256(ctx context.Context, project, sha256 string) (*models.Blob, error) {
	return s.store.GetBlobBySHA256(ctx, project, sha256)
}

// GCResult reports one GC run.
type GCResult struct {
	CandidateCount int   `json:"candidate_count"`
	DeletedCount   int   `json:"deleted_count"`
	FailedCount    int   `json:"failed_count"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
	DryRun         bool  `json:"dry_run"`
}

// GC deletes up to batchSize blobs that have zero references. The
// zero-reference invariant is what makes this safe: live packages always
// hold a reference row for every blob they use.
func (s *BlobService) GC(ctx context.Context, batchSize int, dryRun bool) (GCResult, error) {
	result := GCResult{DryRun: dryRun}
	candidates, err := s.store.ListUnreferencedBlobs(ctx, batchSize)
	if err != nil {
		return result, err
	}
	result.CandidateCount = len(candidates)
	for i := range candidates {
		blob := candidates[i]
		if dryRun {
			result.ReclaimedBytes += blob.SizeBytes
			continue
		}
		if err := s.Delete(ctx, &blob); err != nil {
			s.logger.Warn("blob gc delete failed", "blob", blob.ID, "error", err)
			result.FailedCount++
			continue
		}
		result.DeletedCount++
		result.ReclaimedBytes += blob.SizeBytes
	}
	return result, nil
}
