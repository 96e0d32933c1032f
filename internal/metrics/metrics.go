// Package metrics declares the Prometheus collectors of the assistant.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts handled utterances by intent and outcome
	// ("ok", "awaiting", "failed", "unrecognized").
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fotiva_commands_total",
		Help: "Voice commands handled, by intent and status",
	}, []string{"intent", "status"})

	CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fotiva_command_duration_seconds",
		Help:    "Time spent handling one utterance",
		Buckets: prometheus.DefBuckets,
	})

	EventsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fotiva_events_created_total",
		Help: "Events created by voice",
	})

	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fotiva_backend_errors_total",
		Help: "Failed calls to the studio backend, by operation",
	}, []string{"operation"})

	NavigationPushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fotiva_navigation_pushes_total",
		Help: "Navigation pushes sent to targets, by protocol and status",
	}, []string{"protocol", "status"})
)
