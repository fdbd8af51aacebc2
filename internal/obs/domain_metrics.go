package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutLinkTotal counts checkout-link generation attempts by signing
	// variant and result.
	CheckoutLinkTotal *prometheus.CounterVec
	// PaymentWebhookTotal counts inbound payment notification outcomes.
	PaymentWebhookTotal *prometheus.CounterVec
	// InvoiceTransitionsTotal counts invoice status transitions.
	InvoiceTransitionsTotal *prometheus.CounterVec
	// NotifyTasksTotal counts settlement notification tasks by outcome.
	NotifyTasksTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutLinkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_link_total",
			Help:      "Count of checkout link generation attempts by variant and result.",
		}, []string{"variant", "result"})
		PaymentWebhookTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhook_total",
			Help:      "Count of processed payment notifications by result.",
		}, []string{"result"})
		InvoiceTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_transitions_total",
			Help:      "Count of invoice status transitions.",
		}, []string{"from", "to"})
		NotifyTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_tasks_total",
			Help:      "Count of settlement notification tasks by outcome.",
		}, []string{"result"})

		reuseCounterVec(reg, &CheckoutLinkTotal)
		reuseCounterVec(reg, &PaymentWebhookTotal)
		reuseCounterVec(reg, &InvoiceTransitionsTotal)
		reuseCounterVec(reg, &NotifyTasksTotal)
	})
}

func reuseCounterVec(reg prometheus.Registerer, vec **prometheus.CounterVec) {
	if err := reg.Register(*vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				*vec = existing
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
