package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PACKREG_CONFIG_DIR", t.TempDir())
	t.Setenv("PACKREG_API_URL", "")
	t.Setenv("PACKREG_DB", "")
	t.Setenv("PACKREG_BLOB_ROOT", "")
	t.Setenv("PACKREG_PROJECTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if filepath.Base(cfg.DBPath) != DefaultDBFileName {
		t.Fatalf("expected default db file name, got %q", cfg.DBPath)
	}
	if cfg.BlobRoot != filepath.Join(filepath.Dir(cfg.DBPath), "blobs") {
		t.Fatalf("expected blob root next to db, got %q", cfg.BlobRoot)
	}
	if cfg.ProjectsPath != filepath.Join(filepath.Dir(cfg.DBPath), "projects.yaml") {
		t.Fatalf("expected projects file next to db, got %q", cfg.ProjectsPath)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PACKREG_CONFIG_DIR", dir)
	t.Setenv("PACKREG_API_URL", "")
	t.Setenv("PACKREG_BLOB_ROOT", "")
	t.Setenv("PACKREG_PROJECTS", "")

	content := "api_url = \"http://127.0.0.1:9999\"\ndb_path = \"/tmp/from-file.db\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".packreg.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PACKREG_DB", "/tmp/from-env.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected file value, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "/tmp/from-env.db" {
		t.Fatalf("env must win over file, got %q", cfg.DBPath)
	}
}

func TestSetKeyAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".packreg.toml")

	if err := SetKey(path, "log_level", "debug"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetKey(path, "api_url", "http://localhost:8000"); err != nil {
		t.Fatalf("set second key: %v", err)
	}
	if err := SetKey(path, "bogus", "x"); err == nil {
		t.Fatal("expected unknown key error")
	}

	t.Setenv("PACKREG_CONFIG_DIR", filepath.Dir(path))
	t.Setenv("PACKREG_API_URL", "")
	t.Setenv("PACKREG_DB", "")
	t.Setenv("PACKREG_BLOB_ROOT", "")
	t.Setenv("PACKREG_PROJECTS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := cfg.Get("log_level")
	if err != nil || got != "debug" {
		t.Fatalf("expected debug, got %q (%v)", got, err)
	}
	got, err = cfg.Get("api_url")
	if err != nil || got != "http://localhost:8000" {
		t.Fatalf("expected api url, got %q (%v)", got, err)
	}
}

func TestMetadataLocation(t *testing.T) {
	cfg := Config{MetadataTimezone: "utc"}
	loc, err := cfg.MetadataLocation()
	if err != nil || loc != time.UTC {
		t.Fatalf("utc: got %v (%v)", loc, err)
	}

	cfg.MetadataTimezone = "Local"
	loc, err = cfg.MetadataLocation()
	if err != nil || loc != time.Local {
		t.Fatalf("local: got %v (%v)", loc, err)
	}

	cfg.MetadataTimezone = ""
	if loc, err = cfg.MetadataLocation(); err != nil || loc != time.UTC {
		t.Fatalf("empty defaults to utc: got %v (%v)", loc, err)
	}

	cfg.MetadataTimezone = "mars"
	if _, err = cfg.MetadataLocation(); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
