package handler

import "net/http"

// Routes registers the directory API. createGuard wraps only user creation,
// which is the one non-idempotent write.
func Routes(users *UserHandler, health *HealthHandler, docs *DocsHandler, createGuard func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)

	mux.HandleFunc("GET /docs", docs.UI)
	mux.HandleFunc("GET /docs/openapi.yaml", docs.Spec)

	mux.HandleFunc("GET /api/v1/state", users.State)
	mux.HandleFunc("PUT /api/v1/search", users.SetSearch)

	mux.HandleFunc("GET /api/v1/users", users.List)
	mux.Handle("POST /api/v1/users", createGuard(http.HandlerFunc(users.Create)))
	mux.HandleFunc("POST /api/v1/users/refresh", users.Refresh)
	mux.HandleFunc("GET /api/v1/users/{id}", users.GetByID)
	mux.HandleFunc("PATCH /api/v1/users/{id}", users.Update)
	mux.HandleFunc("DELETE /api/v1/users/{id}", users.Delete)

	return mux
}
