// Package httpapi serves BOM generation and catalog queries over HTTP
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/application/services/bom"
	"github.com/vsinha/sinkbom/pkg/infrastructure/catalogstore"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/metrics"
)

// maxOrderBytes bounds the request body of a generation call
const maxOrderBytes = 4 << 20

// Handler groups dependencies for route handlers.
type Handler struct {
	store      *catalogstore.Store
	generator  *bom.Generator
	events     events.EventStore
	metrics    *metrics.Recorder
	catalogDir string
	logger     *zap.Logger
}

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	Store     *catalogstore.Store
	Generator *bom.Generator
	Events    events.EventStore
	Metrics   *metrics.Recorder
	// Gatherer serves /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	// CatalogDir is reloaded by POST /v1/catalog/reload
	CatalogDir string
	Logger     *zap.Logger
	Timeout    time.Duration
}

// NewRouter builds the HTTP routes
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		store:      deps.Store,
		generator:  deps.Generator,
		events:     deps.Events,
		metrics:    deps.Metrics,
		catalogDir: deps.CatalogDir,
		logger:     logger,
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", h.health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/bom", h.generateBOM)
		r.Get("/generations/{generationID}/events", h.generationEvents)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.catalogInfo)
			r.Post("/reload", h.reloadCatalog)
			r.Get("/items", h.searchItems)
			r.Get("/items/{itemID}", h.getItem)
			r.Get("/items/{itemID}/where-used", h.whereUsed)
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request handled",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
