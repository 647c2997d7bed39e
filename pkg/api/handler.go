// Package api exposes the notification delivery subsystem over HTTP: one
// call per dispatch, an enqueue/lookup pair for durable jobs, and a drain
// trigger. Input errors map to client-error statuses, storage failures to
// server-error statuses; partial delivery failure is still a 200 with a
// structured summary.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/dispatch"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
	"github.com/dmitrymomot/notifyhub/pkg/job"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
)

// Handler wires the dispatcher, drainer, and job storage into HTTP routes.
type Handler struct {
	dispatcher   *dispatch.Dispatcher
	drainer      *job.Drainer
	storage      job.Storage
	logger       *slog.Logger
	healthchecks []func(context.Context) error
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHealthcheck registers a probe run by GET /health.
func WithHealthcheck(probe func(context.Context) error) HandlerOption {
	return func(h *Handler) {
		if probe != nil {
			h.healthchecks = append(h.healthchecks, probe)
		}
	}
}

// NewHandler creates the HTTP handler for the delivery subsystem.
func NewHandler(dispatcher *dispatch.Dispatcher, drainer *job.Drainer, storage job.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: dispatcher,
		drainer:    drainer,
		storage:    storage,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi router with permissive CORS at the boundary, so
// OPTIONS preflights succeed without touching core logic.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)
	r.Post("/dispatch", h.handleDispatch)
	r.Post("/jobs", h.handleEnqueue)
	r.Get("/jobs/{id}", h.handleGetJob)
	r.Post("/drain", h.handleDrain)
	return r
}

func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d := h.dispatcher
	if len(req.Integrations) > 0 {
		d = d.WithRegistry(integration.NewRegistry(req.Integrations...))
	}

	var opts []dispatch.DispatchOption
	if req.RetryConfig != nil {
		opts = append(opts, dispatch.WithPolicy(req.RetryConfig.Policy()))
	}

	summary := d.Dispatch(r.Context(), channel.NewEvent(req.EventType, req.EventData), opts...)
	writeJSON(w, http.StatusOK, newDispatchResponse(summary))
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	j := job.NewJob(req.EventType, req.EventData)
	if err := h.storage.CreateJob(r.Context(), j); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to enqueue job",
			slog.String("event_type", req.EventType),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, errors.New("failed to enqueue job"))
		return
	}

	writeJSON(w, http.StatusCreated, j)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid job id: %w", err))
		return
	}

	j, err := h.storage.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, errors.New("failed to load job"))
		return
	}

	writeJSON(w, http.StatusOK, j)
}

func (h *Handler) handleDrain(w http.ResponseWriter, r *http.Request) {
	result, err := h.drainer.Drain(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "drain pass aborted",
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	for _, probe := range h.healthchecks {
		if err := probe(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
