package server

import "net/http"

// registerRoutes sets up all routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// GraphQL endpoint of each mock instance
	mux.HandleFunc("POST /graphql/{source}/{variant}", s.handleGraphQL)
	mux.HandleFunc("GET /graphql/{source}/{variant}", s.handleGraphQL)

	// Seed management
	mux.HandleFunc("GET /seeds/{source}/{variant}", s.handleListSeeds)
	mux.HandleFunc("POST /seeds/{source}/{variant}", s.handleRegisterSeed)
	mux.HandleFunc("PUT /seeds/{source}/{variant}", s.handleUpdateSeed)
	mux.HandleFunc("DELETE /seeds/{source}/{variant}", s.handleDeleteSeed)
}
