package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"packreg/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func savePackage(t *testing.T, st *Store, pkg *models.Package) {
	t.Helper()
	err := st.WithTx(context.Background(), func(tx *sql.Tx) error {
		return st.SavePackageTx(context.Background(), tx, pkg)
	})
	if err != nil {
		t.Fatalf("save package: %v", err)
	}
}

func TestSaveAndGetPackage_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	pkg := &models.Package{
		Project:     "demo",
		Type:        "maven",
		GroupID:     "com.example",
		ArtifactID:  "app",
		Version:     "1.0",
		Files:       map[string]string{"app-1.0.jar": "abc123"},
		Publisher:   "alice",
		Build:       "ci-42",
		PublishedAt: now,
	}
	savePackage(t, st, pkg)
	if pkg.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := st.GetPackage(ctx, "demo", "maven", "com.example", "app", "1.0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected package, got nil")
	}
	if got.ID != pkg.ID {
		t.Fatalf("expected id %q, got %q", pkg.ID, got.ID)
	}
	if got.Files["app-1.0.jar"] != "abc123" {
		t.Fatalf("unexpected files map: %v", got.Files)
	}
	if got.Publisher != "alice" || got.Build != "ci-42" {
		t.Fatalf("unexpected publisher/build: %q %q", got.Publisher, got.Build)
	}
	if !got.PublishedAt.Equal(now) {
		t.Fatalf("expected published_at %v, got %v", now, got.PublishedAt)
	}
}

func TestGetPackage_MissingReturnsNil(t *testing.T) {
	st := testStore(t)

	got, err := st.GetPackage(context.Background(), "demo", "maven", "com.example", "app", "9.9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSavePackage_UpdateReplacesMutableColumns(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{
		Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0",
		Files: map[string]string{"app-1.0.jar": "aaa"},
	}
	savePackage(t, st, pkg)

	pkg.Files["app-1.0.pom"] = "bbb"
	pkg.Publisher = "bob"
	savePackage(t, st, pkg)

	got, err := st.GetPackage(ctx, "demo", "maven", "com.example", "app", "1.0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %v", got.Files)
	}
	if got.Publisher != "bob" {
		t.Fatalf("expected publisher bob, got %q", got.Publisher)
	}
}

func TestGroupLevelPackage_EmptyArtifactAndVersion(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pkg := &models.Package{
		Project: "demo", Type: "maven", GroupID: "com.example.parent",
		Files: map[string]string{"some-file.txt": "ccc"},
	}
	savePackage(t, st, pkg)

	got, err := st.GetPackage(ctx, "demo", "maven", "com.example.parent", "", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected group-level package")
	}

	// Group-level rows never show up in version listings.
	infos, err := st.ListVersions(ctx, "demo", "maven", "com.example.parent", "")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no versions, got %v", infos)
	}
}

func TestListVersions_AscendingByPublishTime(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, v := range []string{"1.1", "1.0", "2.0"} {
		offsets := []time.Duration{2 * time.Minute, 1 * time.Minute, 3 * time.Minute}
		pkg := &models.Package{
			Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app",
			Version: v, PublishedAt: base.Add(offsets[i]),
		}
		savePackage(t, st, pkg)
	}

	infos, err := st.ListVersions(ctx, "demo", "maven", "com.example", "app")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(infos))
	}
	want := []string{"1.0", "1.1", "2.0"}
	for i, info := range infos {
		if info.Version != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], info.Version)
		}
	}
}

func TestListVersions_ScopedToCoordinate(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	savePackage(t, st, &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "1.0"})
	savePackage(t, st, &models.Package{Project: "demo", Type: "maven", GroupID: "com.example", ArtifactID: "lib", Version: "5.0"})
	savePackage(t, st, &models.Package{Project: "other", Type: "maven", GroupID: "com.example", ArtifactID: "app", Version: "9.0"})

	infos, err := st.ListVersions(ctx, "demo", "maven", "com.example", "app")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 1 || infos[0].Version != "1.0" {
		t.Fatalf("expected only 1.0, got %v", infos)
	}
}
