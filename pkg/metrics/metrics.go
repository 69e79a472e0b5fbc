package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_tile_requests_total",
		Help: "Total number of tile requests dispatched",
	})

	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_tile_cache_hits_total",
		Help: "Total number of tile cache hits",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_tile_cache_misses_total",
		Help: "Total number of tile cache misses",
	})

	TileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_tile_cache_evictions_total",
		Help: "Total number of tile cache evictions",
	})

	EngineRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_engine_requests_total",
		Help: "Total number of requests to the raster engine",
	})

	EngineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rasterview_engine_latency_seconds",
		Help:    "Latency of raster engine calls in seconds",
		Buckets: prometheus.DefBuckets,
	})

	ZoomInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterview_zoom_invalidations_total",
		Help: "Total number of zoom-driven tile invalidations",
	})
)
