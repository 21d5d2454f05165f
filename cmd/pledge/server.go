package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/pledge/internal/api"
	"github.com/JaimeStill/pledge/internal/config"
	"github.com/JaimeStill/pledge/internal/infrastructure"
)

// Server owns the infrastructure, the commitment domain and the HTTP listener.
type Server struct {
	infra  *infrastructure.Infrastructure
	domain *api.Domain
	http   *httpServer
}

// NewServer wires infrastructure, domain systems and routes from cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	runtime := api.NewRuntime(cfg, infra)
	domain, err := api.NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	router.Mount(apiModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"store", cfg.Store,
	)

	return &Server{
		infra:  infra,
		domain: domain,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers every system with the lifecycle coordinator and begins
// listening.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.domain.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("domain start failed: %w", err)
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle and waits up to timeout for every
// shutdown hook and worker to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
