package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records payment webhook reconciliation outcomes.
type WebhookMetrics struct {
	duration *prometheus.HistogramVec
	terminal *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_terminal_state",
		Help: "Webhook reconciliation terminal states.",
	}, []string{"state"})
	reg.MustRegister(duration, terminal)
	return &WebhookMetrics{
		duration: duration,
		terminal: terminal,
	}
}

// ObserveDuration records how long a reconciliation took.
func (w *WebhookMetrics) ObserveDuration(provider string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncTerminal increments the counter for a reconciliation terminal state.
func (w *WebhookMetrics) IncTerminal(state string) {
	if w == nil || w.terminal == nil {
		return
	}
	w.terminal.WithLabelValues(normalizeLabel(state)).Inc()
}
