// Package telemetry exports Prometheus metrics for the partner-finder
// service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all partner-finder Prometheus metrics.
type Metrics struct {
	// Search metrics
	SearchesTotal   *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	SearchResults   prometheus.Histogram
	TieredSearches  prometheus.Counter
	KeywordSearches prometheus.Counter

	// Upstream metrics
	RegistryCalls    *prometheus.CounterVec
	RegistryDuration prometheus.Histogram
	GeocoderCalls    *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Scoring metrics
	ScoringDuration   prometheus.Histogram
	RankingsTotal     prometheus.Counter
	EnrichmentsTotal  *prometheus.CounterVec
	EnrichmentRunning prometheus.Gauge
}

// NewMetrics registers the service metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the service metrics on the given registerer.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_searches_total",
			Help: "Total search requests by outcome (ok, upstream_error, invalid)",
		}, []string{"outcome"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partnerfinder_search_duration_seconds",
			Help:    "End-to-end search latency",
			Buckets: prometheus.DefBuckets,
		}),
		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partnerfinder_search_results",
			Help:    "Result counts per search response",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		}),
		TieredSearches: factory.NewCounter(prometheus.CounterOpts{
			Name: "partnerfinder_tiered_searches_total",
			Help: "Searches that resolved a ZIP code to a location",
		}),
		KeywordSearches: factory.NewCounter(prometheus.CounterOpts{
			Name: "partnerfinder_keyword_searches_total",
			Help: "Searches served without geographic tiering",
		}),
		RegistryCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_registry_calls_total",
			Help: "Nonprofit registry API calls by outcome (ok, error)",
		}, []string{"outcome"}),
		RegistryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partnerfinder_registry_duration_seconds",
			Help:    "Registry API call latency",
			Buckets: prometheus.DefBuckets,
		}),
		GeocoderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_geocoder_calls_total",
			Help: "ZIP geocoder calls by outcome (ok, miss, error)",
		}, []string{"outcome"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_cache_hits_total",
			Help: "Cache hits by key kind (search, zip)",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_cache_misses_total",
			Help: "Cache misses by key kind (search, zip)",
		}, []string{"kind"}),
		ScoringDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partnerfinder_scoring_duration_seconds",
			Help:    "Per-organization scoring latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		RankingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "partnerfinder_rankings_total",
			Help: "Ranking requests processed",
		}),
		EnrichmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partnerfinder_enrichments_total",
			Help: "Background website enrichments by outcome (ok, skipped)",
		}, []string{"outcome"}),
		EnrichmentRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "partnerfinder_enrichment_running",
			Help: "Background enrichment goroutines currently running",
		}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDuration records the elapsed time since start on h.
func ObserveDuration(h prometheus.Histogram, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
