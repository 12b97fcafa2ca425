package maven

import (
	"strings"

	"packreg/internal/registry"
)

// MetadataFile is the fixed metadata document base name of the maven
// repository layout.
const MetadataFile = "maven-metadata.xml"

const snapshotSuffix = "-SNAPSHOT"

// Kind classifies a resolved registry request.
type Kind int

const (
	// KindArtifact is a file request at a full (group, artifact, version)
	// coordinate. Versioned snapshot metadata resolves here too: the
	// timestamped metadata document is stored like any other file.
	KindArtifact Kind = iota
	// KindGroupFile is a file living directly under a group id, with no
	// artifact or version.
	KindGroupFile
	// KindMetadata is the synthesized group/artifact version listing.
	KindMetadata
)

// Request is one parsed registry path.
type Request struct {
	Kind       Kind
	GroupID    string
	ArtifactID string
	Version    string
	FileName   string
}

// GroupFallback converts a metadata request into the equivalent
// group-level file request. Used when no versions exist for the
// group/artifact: the path then denotes a file under a deeper group id.
func (r Request) GroupFallback() Request {
	return Request{
		Kind:     KindGroupFile,
		GroupID:  r.GroupID + "." + r.ArtifactID,
		FileName: r.FileName,
	}
}

// Resolve parses slash-separated path segments into a registry request.
// The resolver is purely syntactic and never guesses defaults; missing
// pieces fail with a bad-request error.
func Resolve(segments []string) (Request, error) {
	var zero Request
	if len(segments) == 0 {
		return zero, registry.BadRequest("no file name")
	}
	fileName := segments[len(segments)-1]
	segments = segments[:len(segments)-1]
	if len(segments) == 0 {
		return zero, registry.BadRequest("no group/artifact/version info")
	}
	prev := segments[len(segments)-1]
	segments = segments[:len(segments)-1]

	if strings.HasPrefix(fileName, MetadataFile) {
		switch {
		case strings.HasSuffix(prev, snapshotSuffix):
			// Timestamped snapshot metadata lives at the exact version.
			groupID, artifactID, err := splitGroupArtifact(segments)
			if err != nil {
				return zero, err
			}
			return Request{Kind: KindArtifact, GroupID: groupID, ArtifactID: artifactID, Version: prev, FileName: fileName}, nil
		case len(segments) == 0:
			return Request{Kind: KindGroupFile, GroupID: prev, FileName: fileName}, nil
		default:
			return Request{Kind: KindMetadata, GroupID: joinGroupID(segments), ArtifactID: prev, FileName: fileName}, nil
		}
	}

	groupID, artifactID, err := splitGroupArtifact(segments)
	if err != nil {
		return zero, err
	}
	return Request{Kind: KindArtifact, GroupID: groupID, ArtifactID: artifactID, Version: prev, FileName: fileName}, nil
}

func splitGroupArtifact(segments []string) (string, string, error) {
	if len(segments) == 0 {
		return "", "", registry.BadRequest("no artifact id")
	}
	artifactID := segments[len(segments)-1]
	segments = segments[:len(segments)-1]
	if len(segments) == 0 {
		return "", "", registry.BadRequest("no group id")
	}
	return joinGroupID(segments), artifactID, nil
}

func joinGroupID(segments []string) string {
	return strings.Join(segments, ".")
}
