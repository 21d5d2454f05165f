// Package api assembles the API module with the commitment domain and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/pledge/internal/config"
	"github.com/JaimeStill/pledge/pkg/middleware"
	"github.com/JaimeStill/pledge/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) (*module.Module, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.MaxBytes(runtime.MaxBodySize))

	return m, nil
}
