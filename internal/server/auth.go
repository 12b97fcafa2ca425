package server

import (
	"context"
	"net/http"
	"strings"

	"packreg/internal/auth"
	"packreg/internal/registry"
)

// capability is the resolved access decision for one (request, project)
// pair. It is computed once per request, before dispatch, so the registry
// services only consult the result.
type capability struct {
	projectExists bool
	enabled       bool
	authenticated bool
	canRead       bool
	canWrite      bool
	principal     string
}

type capabilityKey struct{}

func contextWithCapability(ctx context.Context, c capability) context.Context {
	return context.WithValue(ctx, capabilityKey{}, c)
}

func capabilityFromContext(ctx context.Context) capability {
	c, _ := ctx.Value(capabilityKey{}).(capability)
	return c
}

// resolveCapability authenticates the request credentials against the
// project's token list. Credentials are accepted as HTTP Basic
// (id:secret) or a Bearer token of the form "id:secret".
func (s *Server) resolveCapability(r *http.Request, projectName string) capability {
	project, ok := s.projects.Lookup(projectName)
	if !ok {
		return capability{}
	}
	c := capability{
		projectExists: true,
		enabled:       project.IsEnabled(),
		canRead:       project.PublicRead,
	}

	id, secret, ok := requestCredentials(r)
	if !ok {
		return c
	}
	for _, token := range project.Tokens {
		if token.ID != id {
			continue
		}
		if auth.VerifySecret(token.SecretHash, secret) {
			c.authenticated = true
			c.canRead = true
			c.canWrite = token.Write
			c.principal = token.ID
		}
		break
	}
	return c
}

func requestCredentials(r *http.Request) (id, secret string, ok bool) {
	if id, secret, ok = r.BasicAuth(); ok {
		return id, secret, true
	}
	header := r.Header.Get("Authorization")
	if raw, found := strings.CutPrefix(header, "Bearer "); found {
		if id, secret, found = strings.Cut(strings.TrimSpace(raw), ":"); found {
			return id, secret, true
		}
	}
	return "", "", false
}

// tokenPolicy implements registry.Access against the precomputed request
// capability.
type tokenPolicy struct{}

// NewAccessPolicy returns the capability-check collaborator handed to
// registry services.
func NewAccessPolicy() registry.Access {
	return tokenPolicy{}
}

func (tokenPolicy) CheckRead(ctx context.Context, project string) error {
	c := capabilityFromContext(ctx)
	switch {
	case !c.projectExists:
		return registry.NotFound("unknown project: %s", project)
	case !c.enabled:
		return registry.NotAcceptable("package management not enabled for project %q", project)
	case c.canRead:
		return nil
	case !c.authenticated:
		return registry.Unauthorized("authentication required to read packages in project %q", project)
	default:
		return registry.Forbidden("no package read permission for project %q", project)
	}
}

func (tokenPolicy) CheckWrite(ctx context.Context, project string) error {
	c := capabilityFromContext(ctx)
	switch {
	case !c.projectExists:
		return registry.NotFound("unknown project: %s", project)
	case !c.enabled:
		return registry.NotAcceptable("package management not enabled for project %q", project)
	case !c.authenticated:
		return registry.Unauthorized("authentication required to publish packages to project %q", project)
	case !c.canWrite:
		return registry.Forbidden("no package write permission for project %q", project)
	default:
		return nil
	}
}
