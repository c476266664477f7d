package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intakeReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "nats_messages_received_total",
			Help:      "Total number of inbound messages received from NATS.",
		},
		[]string{"subject"},
	)

	intakeProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "messages_processed_total",
			Help:      "Total number of inbound messages processed, by outcome.",
		},
		[]string{"message_type", "outcome"}, // outcome: registered, rejected_by_external, empty_response, error_transport, error_store, error_decode
	)

	intakeProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "message_processing_duration_seconds",
			Help:      "Duration of inbound message processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"message_type"},
	)
)
