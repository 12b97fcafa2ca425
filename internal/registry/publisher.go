package registry

import (
	"context"
	"log/slog"
)

// LogPublisher records package-published events on the server log. It is
// the default Publisher; deployments wanting webhooks or queues swap in
// their own implementation.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PackagePublished(ctx context.Context, ev Event) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("package published",
		"project", ev.Project,
		"type", ev.Type,
		"group", ev.GroupID,
		"artifact", ev.ArtifactID,
		"version", ev.Version,
		"published_at", ev.PublishedAt)
}
