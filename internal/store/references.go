package store

import (
	"context"
	"database/sql"
	"time"
)

// CreateReferenceTx records that a package currently uses a blob. The
// insert is idempotent: re-verifying a checksum for an already-referenced
// blob is a no-op.
func (s *Store) CreateReferenceTx(ctx context.Context, tx *sql.Tx, packageID, blobID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO package_blob_references (package_id, blob_id, created_at)
		VALUES (?, ?, ?)`, packageID, blobID, dbFormatTime(time.Now().UTC()))
	return err
}

// DeleteReferenceTx removes the association between one package and one
// blob. The blob row itself is untouched; only its reference count drops.
func (s *Store) DeleteReferenceTx(ctx context.Context, tx *sql.Tx, packageID, blobID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM package_blob_references WHERE package_id = ? AND blob_id = ?`,
		packageID, blobID)
	return err
}

// CountBlobReferences returns the number of packages referencing a blob.
func (s *Store) CountBlobReferences(ctx context.Context, blobID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM package_blob_references WHERE blob_id = ?", blobID).Scan(&count)
	return count, err
}

// HasReference reports whether a package currently references a blob.
func (s *Store) HasReference(ctx context.Context, packageID, blobID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM package_blob_references WHERE package_id = ? AND blob_id = ? LIMIT 1",
		packageID, blobID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
