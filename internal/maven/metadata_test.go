package maven

import (
	"strings"
	"testing"
	"time"

	"packreg/internal/models"
)

func TestSynthesize_LatestIncludesSnapshots(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	infos := []models.VersionInfo{
		{Version: "1.0", PublishedAt: base},
		{Version: "1.1-SNAPSHOT", PublishedAt: base.Add(time.Hour)},
		{Version: "1.2", PublishedAt: base.Add(2 * time.Hour)},
		{Version: "1.3-SNAPSHOT", PublishedAt: base.Add(3 * time.Hour)},
	}

	md := Synthesize("com.example", "app", infos, time.UTC)

	if md.Versioning.Latest != "1.3-SNAPSHOT" {
		t.Fatalf("expected latest 1.3-SNAPSHOT, got %q", md.Versioning.Latest)
	}
	if md.Versioning.Release != "1.2" {
		t.Fatalf("expected release 1.2, got %q", md.Versioning.Release)
	}
	if got := md.Versioning.Versions.Version; len(got) != 4 || got[0] != "1.0" || got[3] != "1.3-SNAPSHOT" {
		t.Fatalf("unexpected version list: %v", got)
	}
}

func TestSynthesize_AllSnapshotsOmitsRelease(t *testing.T) {
	infos := []models.VersionInfo{
		{Version: "1.0-SNAPSHOT", PublishedAt: time.Now().UTC()},
	}
	md := Synthesize("com.example", "app", infos, time.UTC)
	if md.Versioning.Release != "" {
		t.Fatalf("expected empty release, got %q", md.Versioning.Release)
	}

	payload, err := md.MarshalBytes()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(payload), "<release>") {
		t.Fatalf("release element must be omitted:\n%s", payload)
	}
}

func TestSynthesize_LastUpdatedFormat(t *testing.T) {
	published := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)
	md := Synthesize("com.example", "app", []models.VersionInfo{{Version: "1.0", PublishedAt: published}}, time.UTC)
	if md.Versioning.LastUpdated != "20240305143045" {
		t.Fatalf("expected 20240305143045, got %q", md.Versioning.LastUpdated)
	}
}

func TestSynthesize_LastUpdatedHonorsLocation(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	published := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	md := Synthesize("com.example", "app", []models.VersionInfo{{Version: "1.0", PublishedAt: published}}, loc)
	if md.Versioning.LastUpdated != "20240306010000" {
		t.Fatalf("expected zone-shifted timestamp, got %q", md.Versioning.LastUpdated)
	}
}

func TestMarshalBytes_Document(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	md := Synthesize("com.example", "app", []models.VersionInfo{
		{Version: "1.0", PublishedAt: base},
		{Version: "2.0", PublishedAt: base.Add(time.Hour)},
	}, time.UTC)

	payload, err := md.MarshalBytes()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc := string(payload)

	for _, want := range []string{
		"<?xml",
		"<metadata>",
		"<groupId>com.example</groupId>",
		"<artifactId>app</artifactId>",
		"<latest>2.0</latest>",
		"<release>2.0</release>",
		"<version>1.0</version>",
		"<version>2.0</version>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in document:\n%s", want, doc)
		}
	}
}
