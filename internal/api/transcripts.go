package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/pledge/pkg/handlers"
	"github.com/JaimeStill/pledge/pkg/routes"
	"github.com/JaimeStill/pledge/pkg/storage"
)

type transcriptHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newTranscriptHandler(store storage.System, logger *slog.Logger) *transcriptHandler {
	return &transcriptHandler{
		store:  store,
		logger: logger.With("handler", "transcripts"),
	}
}

func (h *transcriptHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/transcripts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *transcriptHandler) download(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Download(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("transcript stream interrupted", "key", r.PathValue("key"), "error", err)
	}
}
