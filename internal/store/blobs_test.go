package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"packreg/internal/models"
)

func insertBlob(t *testing.T, st *Store, project, sha string, size int64) *models.Blob {
	t.Helper()
	blob, err := st.InsertBlob(context.Background(), &models.Blob{
		Project:   project,
		SHA256:    sha,
		SizeBytes: size,
		BlobKey:   "sha256/" + sha[:2] + "/" + sha[2:4] + "/" + sha,
	})
	if err != nil {
		t.Fatalf("insert blob: %v", err)
	}
	return blob
}

func TestInsertBlob_DuplicateReturnsCanonicalRow(t *testing.T) {
	st := testStore(t)
	sha := strings.Repeat("a", 64)

	first := insertBlob(t, st, "demo", sha, 5)
	second := insertBlob(t, st, "demo", sha, 5)

	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if second.ID != first.ID {
		t.Fatalf("expected canonical id %q, got %q", first.ID, second.ID)
	}
}

func TestInsertBlob_SameContentDifferentProjects(t *testing.T) {
	st := testStore(t)
	sha := strings.Repeat("b", 64)

	one := insertBlob(t, st, "demo", sha, 5)
	two := insertBlob(t, st, "other", sha, 5)

	if one.ID == two.ID {
		t.Fatal("expected separate rows per project")
	}
}

func TestGetBlobBySHA256_NormalizesInput(t *testing.T) {
	st := testStore(t)
	sha := strings.Repeat("c", 64)
	insertBlob(t, st, "demo", sha, 3)

	got, err := st.GetBlobBySHA256(context.Background(), "demo", "  "+strings.ToUpper(sha)+" ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected blob for normalized digest")
	}
}

func TestDeleteBlob_CascadesReferences(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0"}
	savePackage(t, st, pkg)
	blob := insertBlob(t, st, "demo", strings.Repeat("d", 64), 7)

	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.CreateReferenceTx(ctx, tx, pkg.ID, blob.ID)
	})
	if err != nil {
		t.Fatalf("create reference: %v", err)
	}

	if err := st.DeleteBlob(ctx, blob.ID); err != nil {
		t.Fatalf("delete blob: %v", err)
	}
	count, err := st.CountBlobReferences(ctx, blob.ID)
	if err != nil {
		t.Fatalf("count references: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected references to cascade, got %d", count)
	}
}

func TestCreateReference_Idempotent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0"}
	savePackage(t, st, pkg)
	blob := insertBlob(t, st, "demo", strings.Repeat("e", 64), 7)

	for i := 0; i < 2; i++ {
		err := st.WithTx(ctx, func(tx *sql.Tx) error {
			return st.CreateReferenceTx(ctx, tx, pkg.ID, blob.ID)
		})
		if err != nil {
			t.Fatalf("create reference (attempt %d): %v", i+1, err)
		}
	}

	count, err := st.CountBlobReferences(ctx, blob.ID)
	if err != nil {
		t.Fatalf("count references: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one reference, got %d", count)
	}
}

func TestListUnreferencedBlobs(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0"}
	savePackage(t, st, pkg)

	referenced := insertBlob(t, st, "demo", strings.Repeat("1", 64), 5)
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.CreateReferenceTx(ctx, tx, pkg.ID, referenced.ID)
	})
	if err != nil {
		t.Fatalf("create reference: %v", err)
	}

	older := &models.Blob{
		Project: "demo", SHA256: strings.Repeat("2", 64), SizeBytes: 5,
		BlobKey: "sha256/22/22/" + strings.Repeat("2", 64), CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	if _, err := st.InsertBlob(ctx, older); err != nil {
		t.Fatalf("insert older blob: %v", err)
	}
	insertBlob(t, st, "demo", strings.Repeat("3", 64), 5)

	got, err := st.ListUnreferencedBlobs(ctx, 10)
	if err != nil {
		t.Fatalf("list unreferenced: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 unreferenced blobs, got %d", len(got))
	}
	if got[0].SHA256 != strings.Repeat("2", 64) {
		t.Fatalf("expected oldest first, got %q", got[0].SHA256)
	}
	for _, blob := range got {
		if blob.ID == referenced.ID {
			t.Fatal("referenced blob must not be listed")
		}
	}
}

func TestDeleteReference_LeavesBlobRow(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0"}
	savePackage(t, st, pkg)
	blob := insertBlob(t, st, "demo", strings.Repeat("f", 64), 9)

	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		if err := st.CreateReferenceTx(ctx, tx, pkg.ID, blob.ID); err != nil {
			return err
		}
		return st.DeleteReferenceTx(ctx, tx, pkg.ID, blob.ID)
	})
	if err != nil {
		t.Fatalf("reference lifecycle: %v", err)
	}

	has, err := st.HasReference(ctx, pkg.ID, blob.ID)
	if err != nil {
		t.Fatalf("has reference: %v", err)
	}
	if has {
		t.Fatal("expected reference to be gone")
	}
	got, err := st.GetBlobBySHA256(ctx, "demo", blob.SHA256)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if got == nil {
		t.Fatal("blob row must survive reference deletion")
	}
}
