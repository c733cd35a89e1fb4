package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CityBikesApiStatus API Status (up/down)
	CityBikesApiStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "citybikes_api_status",
			Help: "Status of the CityBikes API (0 = not working, 1 = working)",
		},
		[]string{"endpoint"},
	)

	NetworksCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citybikes_networks_count",
		Help: "Number of networks in the last successful list fetch",
	})

	StationsCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "citybikes_stations_count",
		Help: "Number of stations in the last successful detail fetch",
	}, []string{"network_id"})
)

var (
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outgoing_http_request_duration_seconds",
			Help:    "Duration of outgoing HTTP requests to upstream APIs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)
)

var (
	ClusterRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_recomputes_total",
		Help: "Number of unclustered-marker recomputations per map source",
	}, []string{"source"})

	UnclusteredMarkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cluster_unclustered_markers",
		Help: "Number of entities currently rendered as individual markers per map source",
	}, []string{"source"})
)

var (
	GeolocationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geolocation_requests_total",
		Help: "Number of platform geolocation requests by outcome (success or error kind)",
	}, []string{"outcome"})
)

var (
	ResponseCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "response_cache_hits_total",
		Help: "Number of upstream responses served from the TTL cache",
	}, []string{"endpoint"})

	ResponseCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "response_cache_misses_total",
		Help: "Number of upstream requests that went to the network",
	}, []string{"endpoint"})
)
