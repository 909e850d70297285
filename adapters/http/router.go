// Package http mounts an assembled API onto a chi router, adding the
// transport-level endpoints that live outside the engine's route table:
// liveness, Prometheus metrics, and the OpenAPI document with its UI.
package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"

	"github.com/stacgate/stacgate/adapters/metrics"
	"github.com/stacgate/stacgate/api"
	"github.com/stacgate/stacgate/core/openapi"
)

var registerDocs sync.Once

// RouterConfig carries the optional transport-level handlers.
type RouterConfig struct {
	// Metrics enables the metrics middleware and the /metrics endpoint.
	Metrics *metrics.Collector

	// OpenAPI serves the generated document at /api and the Swagger UI
	// at /api.html when set.
	OpenAPI *openapi.Service

	// Timeout bounds request handling. Zero means 60 seconds.
	Timeout time.Duration
}

// NewRouter mounts every route of the assembled API onto a chi router
// with the standard middleware stack.
func NewRouter(a *api.API, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
		r.Handle("/metrics", promhttp.Handler())
	}

	// Liveness endpoint, outside the engine's route table.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.OpenAPI != nil {
		svc := cfg.OpenAPI
		// swag panics on duplicate registration.
		registerDocs.Do(func() { swag.Register(swag.Name, svc) })
		r.Get("/api", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/vnd.oai.openapi+json;version=3.0")
			w.Write(svc.JSON())
		})
		ui := httpSwagger.Handler(httpSwagger.URL("/api"))
		r.Get("/api.html", func(w http.ResponseWriter, req *http.Request) {
			// http-swagger serves the UI shell at its mount root.
			// It routes on RequestURI, so rewrite both fields.
			req.URL.Path = "/api.html/index.html"
			req.RequestURI = "/api.html/index.html"
			ui.ServeHTTP(w, req)
		})
		r.Get("/api.html/*", ui)
	}

	mountRoutes(r, a)

	return r
}

// mountRoutes registers each API route under its methods, applying the
// route's policy dependencies outermost-first.
func mountRoutes(r chi.Router, a *api.API) {
	for _, rt := range a.Routes() {
		h := rt.Handler
		for i := len(rt.Dependencies) - 1; i >= 0; i-- {
			h = rt.Dependencies[i](h)
		}
		for _, method := range rt.Methods {
			r.Method(method, rt.Path, h)
		}
	}
}

// NewLoggingMiddleware logs completed requests at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for liveness and metrics scrapes
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/api.html") {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			m.ResponseBytes.WithLabelValues(r.Method, path).Add(float64(ww.BytesWritten()))
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
