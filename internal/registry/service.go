package registry

import (
	"context"
	"net/http"
	"time"
)

// Service serves one registry wire protocol (maven layout, and so on).
// Serve receives the path segments below /{service}/{project}/ and returns
// a *Error for anything the client should see as a non-2xx response.
type Service interface {
	ServiceID() string
	Serve(w http.ResponseWriter, r *http.Request, project string, segments []string) error
}

// Access answers capability checks for a project scope. Implementations
// derive the principal from the request context. A nil return means
// allowed; denials are returned as *Error (401, 403 or 406).
type Access interface {
	CheckRead(ctx context.Context, project string) error
	CheckWrite(ctx context.Context, project string) error
}

// Event describes one package-published occurrence.
type Event struct {
	Project     string
	Type        string
	GroupID     string
	ArtifactID  string
	Version     string
	PublishedAt time.Time
}

// Publisher receives package-published events. The registry only exposes
// the hook point; delivery semantics belong to the implementation.
type Publisher interface {
	PackagePublished(ctx context.Context, ev Event)
}
