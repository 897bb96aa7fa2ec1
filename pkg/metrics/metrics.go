package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route template and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapapi_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapapi_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route"},
	)

	// QueriesTotal counts route/distance queries by outcome
	// ("ok" or a failure kind such as "NoPath").
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapapi_queries_total",
			Help: "Shortest route and distance queries by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// GraphReplacesTotal counts graph replacements by source ("api" or "file")
	// and outcome ("ok" or "invalid").
	GraphReplacesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapapi_graph_replaces_total",
			Help: "Graph replace attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	// AuthFailuresTotal counts requests rejected for a missing or wrong API key.
	AuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapapi_auth_failures_total",
			Help: "Requests rejected by API key authentication",
		},
	)

	// GraphNodes, GraphEdges and GraphComponents describe the stored graph.
	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapapi_graph_nodes",
		Help: "Number of nodes in the stored graph",
	})
	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapapi_graph_edges",
		Help: "Number of undirected edges in the stored graph",
	})
	GraphComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapapi_graph_components",
		Help: "Number of connected components in the stored graph",
	})
)
