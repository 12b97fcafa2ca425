package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"packreg/internal/models"
)

const blobColumns = "id, project, sha256, size_bytes, blob_key, created_at"

// GetBlobBySHA256 returns the blob row for (project, sha256), or nil.
func (s *Store) GetBlobBySHA256(ctx context.Context, project, sha256 string) (*models.Blob, error) {
	sha256 = strings.ToLower(strings.TrimSpace(sha256))
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE project = ? AND sha256 = ?`,
		project, sha256)
	return scanBlob(row)
}

// InsertBlob inserts a blob row if absent and returns the canonical row
// for (project, sha256). Concurrent identical uploads converge here.
func (s *Store) InsertBlob(ctx context.Context, blob *models.Blob) (*models.Blob, error) {
	if blob == nil {
		return nil, fmt.Errorf("blob is required")
	}
	blob.SHA256 = strings.ToLower(strings.TrimSpace(blob.SHA256))
	blob.BlobKey = strings.TrimSpace(blob.BlobKey)
	if blob.Project == "" {
		return nil, fmt.Errorf("project is required")
	}
	if blob.SHA256 == "" {
		return nil, fmt.Errorf("sha256 is required")
	}
	if blob.BlobKey == "" {
		return nil, fmt.Errorf("blob_key is required")
	}
	if blob.SizeBytes < 0 {
		return nil, fmt.Errorf("size_bytes must be >= 0")
	}

	if strings.TrimSpace(blob.ID) == "" {
		generated, err := GenerateBlobID(func(id string) (bool, error) {
			return s.blobIDExists(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		blob.ID = generated
	}
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blobs (id, project, sha256, size_bytes, blob_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, blob.ID, blob.Project, blob.SHA256, blob.SizeBytes, blob.BlobKey, dbFormatTime(blob.CreatedAt))
	if err != nil {
		return nil, err
	}

	return s.GetBlobBySHA256(ctx, blob.Project, blob.SHA256)
}

// GetBlobBySHA256Tx is GetBlobBySHA256 inside an open transaction.
func (s *Store) GetBlobBySHA256Tx(ctx context.Context, tx *sql.Tx, project, sha256 string) (*models.Blob, error) {
	sha256 = strings.ToLower(strings.TrimSpace(sha256))
	row := tx.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE project = ? AND sha256 = ?`,
		project, sha256)
	return scanBlob(row)
}

// DeleteBlob removes one blob row. References cascade.
func (s *Store) DeleteBlob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE id = ?", id)
	return err
}

// DeleteBlobTx is DeleteBlob inside an open transaction.
func (s *Store) DeleteBlobTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM blobs WHERE id = ?", id)
	return err
}

// ListUnreferencedBlobs returns up to limit blobs with zero references,
// oldest first. Used by GC.
func (s *Store) ListUnreferencedBlobs(ctx context.Context, limit int) ([]models.Blob, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+blobColumns+` FROM blobs b
		WHERE NOT EXISTS (SELECT 1 FROM package_blob_references r WHERE r.blob_id = b.id)
		ORDER BY b.created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blobs := []models.Blob{}
	for rows.Next() {
		blob, err := scanBlob(rows)
		if err != nil {
			return nil, err
		}
		if blob != nil {
			blobs = append(blobs, *blob)
		}
	}
	return blobs, rows.Err()
}

func (s *Store) blobIDExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM blobs WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanBlob(row rowScanner) (*models.Blob, error) {
	var blob models.Blob
	var createdAt string
	err := row.Scan(&blob.ID, &blob.Project, &blob.SHA256, &blob.SizeBytes, &blob.BlobKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob.CreatedAt, err = dbParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &blob, nil
}
