package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Logger *zap.Logger
	// Gatherer backs /metrics; the default registry when nil
	Gatherer prometheus.Gatherer
	// Auth protects /runs when set
	Auth *Authenticator
}

// NewRouter builds the API:
//
//	GET /healthz
//	GET /metrics
//	GET /runs
//	GET /runs/{id}
//	GET /runs/{id}/bindings?target=<declaration id>
//
// /healthz and /metrics are never authenticated.
func NewRouter(st store.Store, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &handlers{store: st, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID, logging(logger), recovery(logger))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderErrorMessage(w, http.StatusNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		renderErrorMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Route("/runs", func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(bearer(opts.Auth))
		}
		r.Get("/", h.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getRun)
			r.Get("/bindings", h.findBindings)
		})
	})
	return r
}

type handlers struct {
	store  store.Store
	logger *zap.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	renderJSON(w, http.StatusOK, runs)
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	snap, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, snap)
}

func (h *handlers) findBindings(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	bindings, err := h.store.FindBindings(r.Context(), id, r.URL.Query().Get("target"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bindings == nil {
		bindings = []store.BindingRecord{}
	}
	renderJSON(w, http.StatusOK, bindings)
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		renderErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid run id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		renderError(w, http.StatusNotFound, err)
		return
	}
	h.logger.Error("store query failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err))
	renderErrorMessage(w, http.StatusInternalServerError, "failed to query the store")
}
