package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Wrapper decorates a route handler at registration time. It receives the
// full mux pattern ("GET /commitments/{id}") so per-route instrumentation can
// label by template rather than by raw path.
type Wrapper func(pattern string, handler http.HandlerFunc) http.HandlerFunc
