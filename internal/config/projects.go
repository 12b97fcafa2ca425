package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Token is one registry credential for a project. The secret is stored as
// a bcrypt hash; use `packreg hash-token` to produce one.
type Token struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secret_hash"`
	Write      bool   `yaml:"write"`
}

// Project declares one registry project scope.
type Project struct {
	Name       string  `yaml:"name"`
	Enabled    *bool   `yaml:"enabled"` // nil means enabled
	PublicRead bool    `yaml:"public_read"`
	Tokens     []Token `yaml:"tokens"`
}

// IsEnabled reports whether package management is enabled for the project.
func (p Project) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ProjectsFile is the YAML projects/tokens declaration.
type ProjectsFile struct {
	Projects []Project `yaml:"projects"`
}

// Lookup returns the project by name.
func (f *ProjectsFile) Lookup(name string) (Project, bool) {
	for _, p := range f.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}

// LoadProjects reads and validates the projects file. A missing file is an
// error: a registry without project scopes cannot authorize anything.
func LoadProjects(path string) (*ProjectsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}
	var file ProjectsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse projects file %s: %w", path, err)
	}

	seen := map[string]struct{}{}
	for i, p := range file.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("projects[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate project %q", name)
		}
		seen[name] = struct{}{}
		tokenIDs := map[string]struct{}{}
		for j, token := range p.Tokens {
			if strings.TrimSpace(token.ID) == "" {
				return nil, fmt.Errorf("project %q: tokens[%d]: id is required", name, j)
			}
			if strings.TrimSpace(token.SecretHash) == "" {
				return nil, fmt.Errorf("project %q: token %q: secret_hash is required", name, token.ID)
			}
			if _, dup := tokenIDs[token.ID]; dup {
				return nil, fmt.Errorf("project %q: duplicate token id %q", name, token.ID)
			}
			tokenIDs[token.ID] = struct{}{}
		}
	}
	return &file, nil
}
