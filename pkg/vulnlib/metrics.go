package vulnlib

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK           = "ok"
	resultError        = "error"
	resultSizeMismatch = "size_mismatch"
)

// Metrics collects lookup client statistics.
type Metrics struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
}

// NewMetrics creates the lookup metrics and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulngate",
			Name:      "report_cache_hits_total",
			Help:      "Package reports served from the report cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulngate",
			Name:      "report_cache_misses_total",
			Help:      "Package reports not found in the report cache",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vulngate",
			Name:      "upstream_requests_total",
			Help:      "Batch package report requests by result",
		}, []string{"result"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vulngate",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of batch package report requests",
			Buckets:   prometheus.DefBuckets,
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vulngate",
			Name:      "upstream_batch_size",
			Help:      "Number of coordinates per batch package report request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses, m.Requests, m.RequestDuration, m.BatchSize)
	}

	return m
}
