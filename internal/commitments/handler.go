package commitments

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pledge/pkg/handlers"
	"github.com/JaimeStill/pledge/pkg/pagination"
	"github.com/JaimeStill/pledge/pkg/routes"
)

// Handler provides HTTP endpoints for commitment operations.
type Handler struct {
	store      Store
	ingest     Ingester
	check      Checker
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler. The ingest and check collaborators back
// the ingest and operational check endpoints.
func NewHandler(
	store Store,
	ingest Ingester,
	check Checker,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		store:      store,
		ingest:     ingest,
		check:      check,
		logger:     logger.With("handler", "commitments"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for commitment endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/commitments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/ingest", Handler: h.Ingest},
			{Method: "POST", Pattern: "/check", Handler: h.Check},
			{Method: "POST", Pattern: "/{id}/fulfill", Handler: h.Fulfill},
			{Method: "PUT", Pattern: "/{id}/deadline", Handler: h.SetDeadline},
		},
	}
}

// List returns a paginated list of commitments filtered by agent, deal,
// call, category, priority and status query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	filters, err := FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single commitment by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.store.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Ingest extracts commitments from a transcript and stores them.
// Returns 201 with the created commitments, which may be empty.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[IngestCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	created, err := h.ingest.Ingest(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, created)
}

// Check runs an immediate overdue scan and escalation pass.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	result, err := h.check.CheckOverdue(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Fulfill marks a commitment fulfilled. Repeating the call returns the
// already fulfilled commitment unchanged.
func (h *Handler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.store.MarkFulfilled(r.Context(), id, time.Now())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// SetDeadline assigns a deadline to an open commitment, typically one whose
// spoken deadline could not be resolved.
func (h *Handler) SetDeadline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	cmd, err := handlers.DecodeJSON[DeadlineCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.store.SetDeadline(r.Context(), id, cmd.Deadline)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}
