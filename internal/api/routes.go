package api

import (
	"net/http"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	handler := commitments.NewHandler(
		domain.Commitments,
		domain.Tracker,
		domain.Scheduler,
		runtime.Logger,
		runtime.Pagination,
	)

	groups := []routes.Group{handler.Routes()}
	if runtime.Storage != nil {
		groups = append(groups, newTranscriptHandler(runtime.Storage, runtime.Logger).routes())
	}

	routes.RegisterWith(mux, runtime.Metrics.Wrap(), groups...)
}
