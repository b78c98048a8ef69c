package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

// CheckoutMetrics records checkout outcomes and ledger revenue.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	revenue  *prometheus.CounterVec
	profit   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "colchones",
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout transactions in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colchones",
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colchones",
		Name:      "invoice_revenue_total",
		Help:      "Invoiced totals by payment method.",
	}, []string{"payment_method"})
	profit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colchones",
		Name:      "invoice_profit_total",
		Help:      "Invoiced profit by payment method.",
	}, []string{"payment_method"})
	reg.MustRegister(duration, outcomes, revenue, profit)
	return &CheckoutMetrics{
		duration: duration,
		outcomes: outcomes,
		revenue:  revenue,
		profit:   profit,
	}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	c.outcomes.WithLabelValues(outcome).Inc()
}

// AddInvoice adds an invoice's total and profit to the revenue counters.
// Negative amounts are ignored since counters only grow.
func (c *CheckoutMetrics) AddInvoice(paymentMethod string, total, profit float64) {
	if c == nil || c.revenue == nil {
		return
	}
	method := normalizeLabel(paymentMethod)
	if total > 0 {
		c.revenue.WithLabelValues(method).Add(total)
	}
	if profit > 0 {
		c.profit.WithLabelValues(method).Add(profit)
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
