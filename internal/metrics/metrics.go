// Package metrics holds the Prometheus collectors for ledger and request
// activity. Each Metrics value owns its own registry so tests and multiple
// servers in one process do not collide.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger mutation kinds.
const (
	KindAdjust    = "adjust"
	KindStockTake = "stock_take"
	KindTransfer  = "transfer"
	KindLoan      = "loan"
	KindReceive   = "receive_external"
	KindIssue     = "issue"
	KindLocal     = "local"
)

// Refusal reasons.
const (
	ReasonInsufficient = "insufficient_stock"
	ReasonNotFound     = "not_found"
	ReasonTransition   = "invalid_transition"
	ReasonForbidden    = "forbidden"
	ReasonInvalid      = "invalid_input"
	ReasonOther        = "other"
)

// Metrics is the set of collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	mutations   *prometheus.CounterVec
	refusals    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	batches     *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zaloga",
				Name:      "ledger_mutations_total",
				Help:      "Successful stock ledger mutations by kind.",
			},
			[]string{"kind"},
		),
		refusals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zaloga",
				Name:      "refused_operations_total",
				Help:      "Operations refused by a guard, by reason.",
			},
			[]string{"reason"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zaloga",
				Name:      "request_transitions_total",
				Help:      "Request status transitions by target status.",
			},
			[]string{"status"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zaloga",
				Name:      "batches_total",
				Help:      "Batched transactions by result.",
			},
			[]string{"result"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zaloga",
				Name:      "inventory_cache_lookups_total",
				Help:      "Inventory list cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.mutations, m.refusals, m.transitions, m.batches, m.cache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mutation counts a committed ledger mutation.
func (m *Metrics) Mutation(kind string) {
	m.mutations.WithLabelValues(kind).Inc()
}

// Refused counts an operation stopped by a guard.
func (m *Metrics) Refused(reason string) {
	m.refusals.WithLabelValues(reason).Inc()
}

// Transition counts requests entering status.
func (m *Metrics) Transition(status string, n int) {
	m.transitions.WithLabelValues(status).Add(float64(n))
}

// Batch counts a batched transaction outcome.
func (m *Metrics) Batch(err error) {
	result := "committed"
	if err != nil {
		result = "rolled_back"
	}
	m.batches.WithLabelValues(result).Inc()
}

// CacheLookup counts an inventory cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
