// Package metrics declares the kernel's Prometheus instrumentation: order
// throughput, trade throughput, rejection counts by error code, per-shard
// queue depth, and submit latency. Handlers update the package-level
// collectors below; main wires the registry to an HTTP handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange_sim",
		Name:      "orders_processed_total",
		Help:      "Orders submitted to the matching core, accepted or rejected.",
	})

	TradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange_sim",
		Name:      "trades_executed_total",
		Help:      "Fills produced by the matching core.",
	})

	RejectionsByCode = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exchange_sim",
		Name:      "order_rejections_total",
		Help:      "Order rejections, labeled by stable error code.",
	}, []string{"code"})

	ShardQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exchange_sim",
		Name:      "shard_queue_depth",
		Help:      "Commands claimed but not yet consumed, per shard.",
	}, []string{"shard"})

	SubmitLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exchange_sim",
		Name:      "submit_latency_seconds",
		Help:      "End-to-end latency of a Submit round trip through a shard.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
	})

	ResyncsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange_sim",
		Name:      "resyncs_requested_total",
		Help:      "Times a sync-state machine requested a fresh snapshot.",
	})
)
