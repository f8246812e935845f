package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyline_dataset_loads_total",
			Help: "Total dataset load attempts",
		},
		[]string{"source", "status"},
	)

	SourceFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyline_source_fetch_latency_seconds",
			Help:    "Time spent fetching a remote dataset source in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	StructuresLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyline_structures_loaded",
			Help: "Structures in the loaded dataset",
		},
	)

	ViewRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyline_view_requests_total",
			Help: "Total view computations served",
		},
		[]string{"view", "metric"},
	)

	SelectionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyline_selection_errors_total",
			Help: "Requests rejected because no key was selected",
		},
		[]string{"view"},
	)
)
