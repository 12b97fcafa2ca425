package maven

import (
	"encoding/xml"
	"strings"
	"time"

	"packreg/internal/models"
)

// lastUpdatedFormat is the fixed-width numeric timestamp maven clients
// expect in the metadata document (yyyyMMddHHmmss).
const lastUpdatedFormat = "20060102150405"

// Metadata is the synthesized version-listing document. It is derived from
// the package index on every read and never persisted.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning holds the derived version summary.
type Versioning struct {
	Latest      string   `xml:"latest"`
	Release     string   `xml:"release,omitempty"`
	LastUpdated string   `xml:"lastUpdated"`
	Versions    Versions `xml:"versions"`
}

// Versions lists all versions ascending by publish time, matching the
// append-only publish history rather than any semantic ordering.
type Versions struct {
	Version []string `xml:"version"`
}

// Synthesize derives the metadata document from the ordered version list.
// infos must be ascending by publish time. latest includes snapshots;
// release is the most recent non-snapshot version and is omitted when none
// exists. loc decides the lastUpdated timestamp zone.
func Synthesize(groupID, artifactID string, infos []models.VersionInfo, loc *time.Location) Metadata {
	if loc == nil {
		loc = time.UTC
	}
	md := Metadata{GroupID: groupID, ArtifactID: artifactID}

	versions := make([]string, 0, len(infos))
	for _, info := range infos {
		versions = append(versions, info.Version)
	}
	md.Versioning.Versions = Versions{Version: versions}

	if len(infos) == 0 {
		return md
	}
	latest := infos[len(infos)-1]
	md.Versioning.Latest = latest.Version
	md.Versioning.LastUpdated = latest.PublishedAt.In(loc).Format(lastUpdatedFormat)

	for i := len(infos) - 1; i >= 0; i-- {
		if !strings.HasSuffix(infos[i].Version, snapshotSuffix) {
			md.Versioning.Release = infos[i].Version
			break
		}
	}
	return md
}

// MarshalBytes renders the document with an XML declaration.
func (m Metadata) MarshalBytes() ([]byte, error) {
	body, err := xml.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
