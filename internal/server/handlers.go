package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"packreg/internal/registry"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleRegistry dispatches /{service}/{project}/... to the registered
// registry service after resolving the request capability for the project.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	serviceID := r.PathValue("service")
	projectName := r.PathValue("project")

	svc, ok := s.services[serviceID]
	if !ok {
		s.writeRegistryError(w, r, registry.NotFound("unknown registry service: %s", serviceID))
		return
	}

	access := s.resolveCapability(r, projectName)
	ctx := contextWithCapability(r.Context(), access)
	if access.principal != "" {
		ctx = registry.WithPrincipal(ctx, access.principal)
	}

	segments := splitPath(r.PathValue("path"))
	if err := svc.Serve(w, r.WithContext(ctx), projectName, segments); err != nil {
		s.writeRegistryError(w, r, err)
	}
}

// handleGC deletes unreferenced blobs. Guarded by the admin token; the
// registry tokens themselves never grant maintenance access.
func (s *Server) handleGC(w http.ResponseWriter, r *http.Request) {
	presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if s.adminToken == "" || !ok ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(s.adminToken)) != 1 {
		s.writeRegistryError(w, r, registry.Unauthorized("admin token required"))
		return
	}

	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeRegistryError(w, r, registry.BadRequest("invalid dry_run value %q", raw))
			return
		}
		dryRun = parsed
	}

	result, err := s.blobs.GC(r.Context(), s.gcBatch, dryRun)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.log().Error("write gc response", "error", err)
	}
}

// writeRegistryError translates a registry error into a plain-text wire
// response. Package-manager clients show the body verbatim, so it stays a
// single human-readable line.
func (s *Server) writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	status := registry.StatusOf(err)
	message := err.Error()

	fields := []any{"status", status, "error", err,
		"method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr}
	switch {
	case status >= 500:
		s.log().Error("request error", fields...)
		message = "internal error"
	default:
		s.log().Debug("request rejected", fields...)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="packreg"`)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, message)
}

func splitPath(raw string) []string {
	parts := strings.Split(raw, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
