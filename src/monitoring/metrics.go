package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etix_holds_created_total",
		Help: "Holds created, by selection mode",
	}, []string{"mode"})

	HoldsReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etix_holds_released_total",
		Help: "Holds released, by reason (user, expired, finalized, corrupt)",
	}, []string{"reason"})

	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etix_checkouts_total",
		Help: "Checkout attempts, by outcome",
	}, []string{"status"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "etix_sweep_duration_seconds",
		Help:    "Duration of expired-hold sweep runs",
		Buckets: prometheus.DefBuckets,
	})
)
