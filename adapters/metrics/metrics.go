// Package metrics provides Prometheus metrics collection for the
// catalog service.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics the service records.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ResponseBytes    *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a metrics collector registered on the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a metrics collector on a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stacgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stacgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		ResponseBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "response_bytes_total",
				Help:      "Total bytes written in responses",
			},
			[]string{"method", "path"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stacgate",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// NormalizePath collapses the id segments of catalog paths back to
// their template parameters so metric label cardinality stays bounded.
// e.g. /catalogs/eo/items/S2A_001 -> /catalogs/{catalog_id}/items/{item_id}
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	params := map[string]string{
		"catalogs":    "{catalog_id}",
		"collections": "{collection_id}",
		"items":       "{item_id}",
	}
	for i := 1; i < len(parts); i++ {
		if param, ok := params[parts[i-1]]; ok && parts[i] != "" {
			parts[i] = param
		}
	}
	normalized := strings.Join(parts, "/")
	if len(normalized) > 100 {
		return normalized[:100] + "..."
	}
	return normalized
}
