package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks upstream fetches
type Metrics struct {
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchRecords  *prometheus.HistogramVec
}

// NewMetrics creates the fetch metrics and registers them with reg when it is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datagov",
				Subsystem: "fetch",
				Name:      "total",
				Help:      "Total number of upstream fetches by outcome",
			},
			[]string{"resource", "outcome"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datagov",
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Upstream fetch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource"},
		),

		FetchRecords: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datagov",
				Subsystem: "fetch",
				Name:      "records",
				Help:      "Number of records returned by successful fetches",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"resource"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.FetchTotal, m.FetchDuration, m.FetchRecords)
	}

	return m
}

func (m *Metrics) observe(resource, outcome string, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(resource, outcome).Inc()
	m.FetchDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.FetchRecords.WithLabelValues(resource).Observe(float64(records))
	}
}
