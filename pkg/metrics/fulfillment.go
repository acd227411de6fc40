package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics counts post-commit fulfillment hook outcomes. Hook
// failures never fail the order, so the counters are the operator's only
// signal that manual reconciliation is needed.
type FulfillmentMetrics struct {
	hookSuccess *prometheus.CounterVec
	hookFailure *prometheus.CounterVec
	storesTotal *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	hookSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_hook_success",
		Help: "Successful post-commit fulfillment hooks.",
	}, []string{"hook"})
	hookFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_hook_failure",
		Help: "Failed post-commit fulfillment hooks.",
	}, []string{"hook"})
	storesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_store_orders",
		Help: "Per-store order creation outcomes during checkout fan-out.",
	}, []string{"outcome"})
	reg.MustRegister(hookSuccess, hookFailure, storesTotal)
	return &FulfillmentMetrics{
		hookSuccess: hookSuccess,
		hookFailure: hookFailure,
		storesTotal: storesTotal,
	}
}

// IncHookSuccess increments the success counter for the named hook.
func (f *FulfillmentMetrics) IncHookSuccess(hook string) {
	if f == nil || f.hookSuccess == nil {
		return
	}
	f.hookSuccess.WithLabelValues(normalizeLabel(hook)).Inc()
}

// IncHookFailure increments the failure counter for the named hook.
func (f *FulfillmentMetrics) IncHookFailure(hook string) {
	if f == nil || f.hookFailure == nil {
		return
	}
	f.hookFailure.WithLabelValues(normalizeLabel(hook)).Inc()
}

// IncStoreOutcome records one per-store order creation outcome.
func (f *FulfillmentMetrics) IncStoreOutcome(outcome string) {
	if f == nil || f.storesTotal == nil {
		return
	}
	f.storesTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
