// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reelwriter"

var (
	// Script generation and remix outcomes.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total number of generate and remix requests by outcome",
		},
		[]string{"operation", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End to end pipeline duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 45},
		},
		[]string{"operation"},
	)

	ExampleSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "example_source_total",
			Help:      "Prompts assembled by the pool their examples came from",
		},
		[]string{"source"},
	)

	ReconcileShapeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "answer_shape_total",
			Help:      "Model answers by detected structure",
		},
		[]string{"shape"},
	)

	// Kafka.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Script events published to Kafka",
		},
		[]string{"type", "status"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Script events handled by the worker",
		},
		[]string{"type", "status"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeQuota   = "quota_exceeded"
	OutcomeFailure = "failure"
)
