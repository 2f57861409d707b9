package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polihub_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	ModerationVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polihub_moderation_verdicts_total",
			Help: "Auto-moderation verdicts by action",
		},
		[]string{"action"},
	)

	TrustAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polihub_trust_adjustments_total",
			Help: "Applied trust score adjustments by cause",
		},
		[]string{"cause"},
	)

	GlobalLogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polihub_global_logouts_total",
			Help: "Global logouts triggered on this instance",
		},
	)
)
