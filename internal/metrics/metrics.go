package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Storage operations reported by StorageFailures.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDecode = "decode"
)

var (
	// Usage metrics
	UsesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolquota_uses_recorded_total",
			Help: "Total tool uses recorded",
		},
		[]string{"tool"},
	)

	LimitReached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolquota_limit_reached_total",
			Help: "Recorded uses that exhausted the daily limit",
		},
		[]string{"tool"},
	)

	DayRollovers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolquota_day_rollovers_total",
			Help: "Usage records from a past day replaced by a fresh record",
		},
		[]string{"tool"},
	)

	RemainingUses = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toolquota_remaining_uses",
			Help: "Uses left today as last computed",
		},
		[]string{"tool"},
	)

	// Storage metrics
	StorageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolquota_storage_failures_total",
			Help: "Storage operations that failed and were recovered locally",
		},
		[]string{"op"},
	)

	// Onboarding metrics
	OnboardingCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toolquota_onboarding_completed_total",
			Help: "Onboarding flows completed or skipped",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UsesRecorded,
		LimitReached,
		DayRollovers,
		RemainingUses,
		StorageFailures,
		OnboardingCompleted,
	)
}

// WriteTextfile writes all registered metrics to path in the text exposition
// format read by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
