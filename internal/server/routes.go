package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Admin.
	mux.HandleFunc("POST /admin/gc", s.handleGC)

	// Registry wire protocols; all methods dispatch through one handler
	// because package-manager clients use GET/HEAD/PUT/POST on the same
	// paths.
	mux.HandleFunc("/{service}/{project}/{path...}", s.handleRegistry)

	return s.withRequestLogging(mux)
}
