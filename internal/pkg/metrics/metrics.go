// Package metrics holds the Prometheus collectors of the console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesMeasured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollplan_files_measured_total",
			Help: "Files run through geometry extraction",
		},
		[]string{"format", "status"},
	)

	MeasureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollplan_measure_duration_seconds",
			Help:    "Time taken to measure a file",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"format"},
	)

	BoardMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollplan_board_moves_total",
			Help: "Board moves by outcome",
		},
		[]string{"kind", "outcome"},
	)

	BoardReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollplan_board_reloads_total",
			Help: "Full board reloads by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollplan_api_request_duration_seconds",
			Help:    "Latency of production API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	PushConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollplan_push_connected",
			Help: "1 while the orders-updated channel is connected",
		},
	)
)
