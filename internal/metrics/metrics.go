// Package metrics exposes prometheus instruments for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitway"

// Metrics groups the instruments the ledger updates.
type Metrics struct {
	Operations          *prometheus.CounterVec
	Recomputes          prometheus.Counter
	Overcommitted       prometheus.Counter
	People              prometheus.Gauge
	SharedExpenses      prometheus.Gauge
	AssignedExpenses    prometheus.Gauge
	AssignedTotalAmount prometheus.Gauge
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"operation", "result"}),
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Expense split recomputations.",
		}),
		Overcommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overcommitted_expenses_total",
			Help:      "Recomputations where locked shares exceeded the expense total.",
		}),
		People: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "people",
			Help:      "People in the group.",
		}),
		SharedExpenses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shared_expenses",
			Help:      "Expenses waiting in the shared pool.",
		}),
		AssignedExpenses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assigned_expenses",
			Help:      "Expenses in the assigned pool.",
		}),
		AssignedTotalAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assigned_amount",
			Help:      "Sum of all assigned expense totals.",
		}),
	}
	reg.MustRegister(
		m.Operations,
		m.Recomputes,
		m.Overcommitted,
		m.People,
		m.SharedExpenses,
		m.AssignedExpenses,
		m.AssignedTotalAmount,
	)
	return m
}

// ObserveOperation counts one ledger operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// ObserveRecompute counts one recomputation and whether it was overcommitted.
func (m *Metrics) ObserveRecompute(remainder float64) {
	m.Recomputes.Inc()
	if remainder < 0 {
		m.Overcommitted.Inc()
	}
}
