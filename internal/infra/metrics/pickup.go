package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		confirmationsTotal,
		windowEvaluationsTotal,
		completePickupDuration,
		sessionsActive,
		sessionsSwept,
	)
}

var (
	// outcome: success|incomplete_code|invalid_donation|window_closed|verification_failed
	confirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_confirmations_total",
			Help: "Finished pickup confirmation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// status: TOO_EARLY|EARLY|ON_TIME|LATE|TOO_LATE|none
	windowEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_window_evaluations_total",
			Help: "Pickup window evaluations by resulting status.",
		},
		[]string{"status"},
	)

	completePickupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complete_pickup_duration_seconds",
			Help:    "Latency of the external complete-pickup call in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "confirmation_sessions_active",
			Help: "Confirmation sessions currently held in memory.",
		},
	)

	sessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "confirmation_sessions_swept_total",
			Help: "Idle confirmation sessions discarded by the sweeper.",
		},
	)
)

func IncConfirmation(outcome string) {
	confirmationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncWindowEvaluation(status string) {
	if status == "" {
		status = "none"
	}
	// statuses are upper-case by convention; keep them as-is
	windowEvaluationsTotal.WithLabelValues(status).Inc()
}

func ObserveCompletePickup(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "fail"
	}
	completePickupDuration.WithLabelValues(result).Observe(d.Seconds())
}

func SetSessionsActive(n int) { sessionsActive.Set(float64(n)) }

func IncSessionsSwept(n int) { sessionsSwept.Add(float64(n)) }
