package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCyclesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "status_poller",
			Name:      "poll_cycles_total",
			Help:      "Total number of poll cycles executed.",
		},
	)

	messagesPolledCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "status_poller",
			Name:      "messages_polled_total",
			Help:      "Total number of per-message poll attempts, by classification.",
		},
		[]string{"classification"}, // pending, acknowledged, rejected, unresolvable, error
	)

	outcomesPublishedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "status_poller",
			Name:      "outcomes_published_total",
			Help:      "Total number of terminal outcome events published.",
		},
		[]string{"app_rec_status"},
	)

	pollCycleDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "status_poller",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a full poll cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
