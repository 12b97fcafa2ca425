package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"packreg/internal/config"
	"packreg/internal/registry"
)

const (
	adminTokenEnvKey  = "PACKREG_ADMIN_TOKEN"
	allowRemoteEnvKey = "PACKREG_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	defaultGCBatch    = 500
)

// Server wraps the HTTP surface of the registry: per-type registry
// services, project capability checks and the admin endpoints.
type Server struct {
	addr       string
	services   map[string]registry.Service
	projects   *config.ProjectsFile
	blobs      *registry.BlobService
	logger     *slog.Logger
	adminToken string
	gcBatch    int
}

// New creates a new server instance.
func New(addr string, services []registry.Service, projects *config.ProjectsFile,
	blobs *registry.BlobService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	byID := map[string]registry.Service{}
	for _, svc := range services {
		byID[svc.ServiceID()] = svc
	}
	return &Server{
		addr:       addr,
		services:   byID,
		projects:   projects,
		blobs:      blobs,
		logger:     logger,
		adminToken: strings.TrimSpace(os.Getenv(adminTokenEnvKey)),
		gcBatch:    defaultGCBatch,
	}
}

// ListenAndServe starts the HTTP server. Read and write timeouts are left
// unset: artifact transfers are unbounded in size.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
