// Package metrics exposes prometheus counters for the authorization flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange outcomes.
const (
	OutcomeIssued      = "issued"
	OutcomeMissing     = "missing"
	OutcomeBadCode     = "bad_code"
	OutcomeUnknownUser = "unknown_user"
	OutcomeError       = "error"
)

// Metrics groups the flow counters. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	codesIssued   *prometheus.CounterVec
	exchanges     *prometheus.CounterVec
	revocations   prometheus.Counter
	loginRejected *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// New registers the flow counters plus process and Go runtime collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		codesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "codes_issued_total",
			Help:      "Authorization codes issued, by client.",
		}, []string{"client_id"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "code_exchanges_total",
			Help:      "Authorization code exchanges, by outcome.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "token_revocations_total",
			Help:      "Access tokens revoked.",
		}),
		loginRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "logins_rejected_total",
			Help:      "Rejected login attempts on the authorize form, by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		m.codesIssued, m.exchanges, m.revocations, m.loginRejected, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) CodeIssued(clientID string) {
	if m == nil {
		return
	}
	m.codesIssued.WithLabelValues(clientID).Inc()
}

func (m *Metrics) Exchange(outcome string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Revoked() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

// LoginRejected counts a refused credential submission; reason is "credentials" or "rate_limited".
func (m *Metrics) LoginRejected(reason string) {
	if m == nil {
		return
	}
	m.loginRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Request(route, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, code).Inc()
}
