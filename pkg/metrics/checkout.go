package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CheckoutOutcomeSuccess    = "success"
	CheckoutOutcomeRejected   = "rejected"
	CheckoutOutcomeLogFailure = "log_failure"
)

// CheckoutMetrics counts checkout attempts by outcome.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counter on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "WhatsApp checkouts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &CheckoutMetrics{outcomes: outcomes}
}

func (c *CheckoutMetrics) Inc(outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
