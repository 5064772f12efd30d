package nativecheckout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for the handoff flow.
type Metrics struct {
	// DetectAttempts counts detection probes by outcome (success/failure).
	DetectAttempts *prometheus.CounterVec
	// MessagesTotal counts native messages dispatched to session handlers,
	// by kind.
	MessagesTotal *prometheus.CounterVec
	// HandoffStarts counts successful Session.Start invocations.
	HandoffStarts prometheus.Counter
	// SetupDuration observes how long the concurrent setup operations
	// (token, order, page URL) take to settle.
	SetupDuration prometheus.Histogram
}

// NewMetrics registers the handoff metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "nativecheckout"
	}
	factory := promauto.With(reg)
	return &Metrics{
		DetectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detect_attempts_total",
				Help:      "Number of native app detection probes by outcome",
			},
			[]string{"outcome"},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Number of native messages dispatched to session handlers",
			},
			[]string{"kind"},
		),
		HandoffStarts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handoff_starts_total",
				Help:      "Number of handoff sessions started",
			},
		),
		SetupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "setup_duration_seconds",
				Help:      "Time for token issuance, order creation, and page URL resolution to settle",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
