package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "llti"

var (
	BuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_build_duration_seconds",
			Help:      "Time to build a lookup table.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 18), // 100us ~ 13s
		},
		[]string{"layout"},
	)

	LookupLatency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookup_latency_seconds",
			Help:      "Mean Find latency of the last lookup run.",
		},
		[]string{"layout"},
	)

	LookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_total",
			Help:      "Find calls by layout and result.",
		},
		[]string{"layout", "result"}, // result: hit/miss
	)

	BookOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_ops_total",
			Help:      "Order book operations replayed.",
		},
		[]string{"kind"}, // add/cancel/modify
	)

	BookLiveOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "book_live_orders",
			Help:      "Live orders in the replayed book.",
		},
	)
)

// Collectors 全部指标，便于注册到自定义 registry
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{BuildDuration, LookupLatency, LookupTotal, BookOpsTotal, BookLiveOrders}
}

func MustRegister() {
	prometheus.MustRegister(Collectors()...)
}
