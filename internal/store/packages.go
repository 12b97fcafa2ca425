package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"packreg/internal/models"
)

const packageColumns = "id, project, type, group_id, artifact_id, version, files, publisher, build, published_at"

type rowScanner interface {
	Scan(dest ...any) error
}

// GetPackage returns the package for the exact coordinate, or nil when
// absent. Group-level records use empty artifactID and version.
func (s *Store) GetPackage(ctx context.Context, project, typ, groupID, artifactID, version string) (*models.Package, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages
		WHERE project = ? AND type = ? AND group_id = ? AND artifact_id = ? AND version = ?`,
		project, typ, groupID, artifactID, version)
	return scanPackage(row)
}

// GetPackageTx is GetPackage inside an open transaction.
func (s *Store) GetPackageTx(ctx context.Context, tx *sql.Tx, project, typ, groupID, artifactID, version string) (*models.Package, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages
		WHERE project = ? AND type = ? AND group_id = ? AND artifact_id = ? AND version = ?`,
		project, typ, groupID, artifactID, version)
	return scanPackage(row)
}

// ListVersions returns the (version, publish time) entries for one
// group/artifact, ascending by publish time. Ties fall back to insertion
// order so the listing stays stable.
func (s *Store) ListVersions(ctx context.Context, project, typ, groupID, artifactID string) ([]models.VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, published_at FROM packages
		WHERE project = ? AND type = ? AND group_id = ? AND artifact_id = ? AND version != ''
		ORDER BY published_at ASC, rowid ASC`,
		project, typ, groupID, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []models.VersionInfo{}
	for rows.Next() {
		var version, publishedAt string
		if err := rows.Scan(&version, &publishedAt); err != nil {
			return nil, err
		}
		t, err := dbParseTime(publishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse published_at for %s: %w", version, err)
		}
		infos = append(infos, models.VersionInfo{Version: version, PublishedAt: t})
	}
	return infos, rows.Err()
}

// SavePackageTx inserts or updates one package row. A package with an
// empty ID is assigned one and inserted; otherwise the mutable columns
// (files, publisher, build, published_at) are replaced.
func (s *Store) SavePackageTx(ctx context.Context, tx *sql.Tx, pkg *models.Package) error {
	if pkg == nil {
		return fmt.Errorf("package is required")
	}
	filesJSON, err := filesToJSON(pkg.Files)
	if err != nil {
		return err
	}
	if pkg.PublishedAt.IsZero() {
		pkg.PublishedAt = time.Now().UTC()
	}

	if strings.TrimSpace(pkg.ID) == "" {
		id, err := GeneratePackageID(func(id string) (bool, error) {
			return packageIDExistsTx(ctx, tx, id)
		})
		if err != nil {
			return err
		}
		pkg.ID = id
		_, err = tx.ExecContext(ctx, `INSERT INTO packages
			(id, project, type, group_id, artifact_id, version, files, publisher, build, published_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pkg.ID, pkg.Project, pkg.Type, pkg.GroupID, pkg.ArtifactID, pkg.Version,
			filesJSON, nullable(pkg.Publisher), nullable(pkg.Build), dbFormatTime(pkg.PublishedAt))
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE packages
		SET files = ?, publisher = ?, build = ?, published_at = ?
		WHERE id = ?`,
		filesJSON, nullable(pkg.Publisher), nullable(pkg.Build), dbFormatTime(pkg.PublishedAt), pkg.ID)
	return err
}

func packageIDExistsTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM packages WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanPackage(row rowScanner) (*models.Package, error) {
	var pkg models.Package
	var filesJSON, publishedAt string
	var publisher, build sql.NullString
	err := row.Scan(&pkg.ID, &pkg.Project, &pkg.Type, &pkg.GroupID, &pkg.ArtifactID,
		&pkg.Version, &filesJSON, &publisher, &build, &publishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pkg.Publisher = publisher.String
	pkg.Build = build.String
	pkg.PublishedAt, err = dbParseTime(publishedAt)
	if err != nil {
		return nil, fmt.Errorf("parse published_at: %w", err)
	}
	pkg.Files, err = filesFromJSON(filesJSON)
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func filesToJSON(files map[string]string) (string, error) {
	if files == nil {
		files = map[string]string{}
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("marshal files: %w", err)
	}
	return string(raw), nil
}

func filesFromJSON(raw string) (map[string]string, error) {
	files := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return files, nil
	}
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	return files, nil
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
