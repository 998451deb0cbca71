// Package metrics exposes the prometheus instrumentation for the bus,
// cache, pipeline, cover-art aggregator and HTTP layer, grounded on the
// teacher's internal/metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acrd_bus_dropped_total",
		Help: "Total number of in-memory bus events dropped due to a full subscriber queue.",
	}, []string{"topic"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acrd_cache_hits_total",
		Help: "Total number of cache Get calls that found a value.",
	}, []string{"tier"})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acrd_cache_misses_total",
		Help: "Total number of cache Get calls that found nothing in any tier.",
	})

	CacheMemoryBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "acrd_cache_memory_bytes",
		Help: "Current memory-tier cache size in bytes.",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acrd_cache_evictions_total",
		Help: "Total number of memory-tier LRU evictions.",
	})

	ActivePlayerChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acrd_active_player_changes_total",
		Help: "Total number of active-player elections that changed the winner.",
	})

	ControllerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acrd_controller_events_total",
		Help: "Total number of PlayerEvents fused by the pipeline, per controller and type.",
	}, []string{"controller", "type"})

	CoverArtProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acrd_coverart_provider_calls_total",
		Help: "Total number of cover-art provider calls, per provider and outcome.",
	}, []string{"provider", "outcome"})

	CoverArtLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acrd_coverart_lookup_duration_seconds",
		Help:    "Cover-art aggregate lookup latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "cache_result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acrd_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WebsocketClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "acrd_websocket_clients",
		Help: "Current number of connected /api/events WebSocket clients.",
	})

	BackgroundJobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "acrd_background_jobs_active",
		Help: "Current number of unfinished background jobs.",
	})
)
