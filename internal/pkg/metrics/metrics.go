package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EscrowCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapgate_escrow_calls_total",
		Help: "Escrow entry point invocations by protocol version, operation and outcome",
	}, []string{"version", "operation", "outcome"})

	EscrowRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapgate_escrow_rejects_total",
		Help: "Escrow rejections by machine-readable reason",
	}, []string{"reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapgate_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	LedgerHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapgate_ledger_height",
		Help: "Current height of the host ledger",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_events_dropped_total",
		Help: "Settlement events dropped because the event pipeline was full",
	})
)
