package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProjects(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write projects file: %v", err)
	}
	return path
}

func TestLoadProjects_Valid(t *testing.T) {
	path := writeProjects(t, `
projects:
  - name: public
    public_read: true
    tokens:
      - id: ci
        secret_hash: "$2a$10$fakehashfakehashfakehash"
        write: true
  - name: archived
    enabled: false
`)
	file, err := LoadProjects(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	public, ok := file.Lookup("public")
	if !ok {
		t.Fatal("expected project public")
	}
	if !public.IsEnabled() || !public.PublicRead {
		t.Fatalf("unexpected project: %+v", public)
	}
	if len(public.Tokens) != 1 || !public.Tokens[0].Write {
		t.Fatalf("unexpected tokens: %+v", public.Tokens)
	}

	archived, ok := file.Lookup("archived")
	if !ok {
		t.Fatal("expected project archived")
	}
	if archived.IsEnabled() {
		t.Fatal("expected archived to be disabled")
	}

	if _, ok := file.Lookup("missing"); ok {
		t.Fatal("lookup of missing project must fail")
	}
}

func TestLoadProjects_MissingFile(t *testing.T) {
	if _, err := LoadProjects(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadProjects_Validation(t *testing.T) {
	cases := map[string]string{
		"missing name": `
projects:
  - public_read: true
`,
		"duplicate project": `
projects:
  - name: demo
  - name: demo
`,
		"token without id": `
projects:
  - name: demo
    tokens:
      - secret_hash: "x"
`,
		"token without hash": `
projects:
  - name: demo
    tokens:
      - id: ci
`,
		"duplicate token id": `
projects:
  - name: demo
    tokens:
      - id: ci
        secret_hash: "x"
      - id: ci
        secret_hash: "y"
`,
	}
	for name, content := range cases {
		path := writeProjects(t, content)
		if _, err := LoadProjects(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
