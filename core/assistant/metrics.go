package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unichat",
		Name:      "answers_total",
		Help:      "Answers served, by source (model or fallback).",
	}, []string{"source"})

	inferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "unichat",
		Name:      "inference_duration_seconds",
		Help:      "Model invocation latency, by backend.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"backend"})

	reclaimedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "unichat",
		Name:      "memory_reclaimed_bytes_total",
		Help:      "Memory returned by the periodic reclaimer.",
	})
)
