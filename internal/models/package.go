package models

import "time"

// Package is one published artifact coordinate within a project. ArtifactID
// and Version are empty for group-level records that only hold metadata
// files living directly under a group id.
type Package struct {
	ID          string            `json:"id"`
	Project     string            `json:"project"`
	Type        string            `json:"type"`
	GroupID     string            `json:"group_id"`
	ArtifactID  string            `json:"artifact_id,omitempty"`
	Version     string            `json:"version,omitempty"`
	Files       map[string]string `json:"files"` // fileName -> sha256
	Publisher   string            `json:"publisher,omitempty"`
	Build       string            `json:"build,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
}

// VersionInfo is one (version, publish time) entry of the derived
// group-version index, ordered ascending by publish time.
type VersionInfo struct {
	Version     string
	PublishedAt time.Time
}
