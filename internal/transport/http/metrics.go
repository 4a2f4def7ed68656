package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	standardizeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "factorstd",
		Subsystem: "http",
		Name:      "standardize_requests_total",
		Help:      "Total standardize calls by outcome.",
	}, []string{"status"})

	standardizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "factorstd",
		Subsystem: "http",
		Name:      "standardize_duration_seconds",
		Help:      "Duration of successful standardize calls.",
		Buckets:   prometheus.DefBuckets,
	})
)

func observeStandardize(status string, d time.Duration) {
	standardizeRequests.WithLabelValues(status).Inc()
	if status == "ok" {
		standardizeDuration.Observe(d.Seconds())
	}
}
