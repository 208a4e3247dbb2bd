package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CanteenMetrics holds the counters exposed by the ordering core.
type CanteenMetrics struct {
	TokensAllocated *prometheus.CounterVec // mode: sequential | synthetic
	Redemptions     *prometheus.CounterVec // result: ok | expired | already_redeemed | not_ready | not_found
	Transitions     *prometheus.CounterVec // to: preparing | ready | completed
}

// New registers and returns the canteen counters.
func New(service string) *CanteenMetrics {
	m := NewUnregistered(service)
	prometheus.MustRegister(m.TokensAllocated, m.Redemptions, m.Transitions)
	return m
}

// NewUnregistered builds the counters without touching the default
// registry. Tests that construct several services in one process use this
// to avoid duplicate-registration panics.
func NewUnregistered(service string) *CanteenMetrics {
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "tokens_allocated_total",
		Help:      "Pickup tokens allocated, by allocation mode.",
	}, []string{"mode"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "redemptions_total",
		Help:      "Token redemption attempts, by outcome.",
	}, []string{"result"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "status_transitions_total",
		Help:      "Successful order status transitions, by target status.",
	}, []string{"to"})

	return &CanteenMetrics{TokensAllocated: tokens, Redemptions: redemptions, Transitions: transitions}
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
