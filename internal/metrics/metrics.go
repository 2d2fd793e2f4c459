// Package metrics exposes Prometheus metrics of the session guard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a session check.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeSignedOut     = "signed_out"
	OutcomeCanceled      = "canceled"
)

// Results of a refresh exchange.
const (
	RefreshSuccess  = "success"
	RefreshRejected = "rejected"
	RefreshFailed   = "failed"
	RefreshStale    = "stale"
)

// SessionCollector is what the refresh coordinator and the route guard
// report to.
type SessionCollector interface {
	RecordCheck(outcome string)
	RecordRefresh(result string, d time.Duration)
	RecordSignOut(reason string)
	RecordRedirect(target string)
}

// Collector is the Prometheus implementation of SessionCollector.
type Collector struct {
	checks         *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	signOuts       *prometheus.CounterVec
	redirects      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atolye_session_checks_total",
			Help: "Session checks by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atolye_token_refresh_total",
			Help: "Refresh exchanges by result.",
		}, []string{"result"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atolye_token_refresh_latency_seconds",
			Help:    "Latency of refresh exchanges in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		signOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atolye_sign_outs_total",
			Help: "Credential clears by reason.",
		}, []string{"reason"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atolye_guard_redirects_total",
			Help: "Redirects emitted by the route guard.",
		}, []string{"target"}),
	}

	reg.MustRegister(
		c.checks,
		c.refreshes,
		c.refreshLatency,
		c.signOuts,
		c.redirects,
	)

	return c
}

func (c *Collector) RecordCheck(outcome string) {
	c.checks.WithLabelValues(outcome).Inc()
}

// RecordRefresh counts one exchange and observes its latency.
func (c *Collector) RecordRefresh(result string, d time.Duration) {
	c.refreshes.WithLabelValues(result).Inc()
	c.refreshLatency.Observe(d.Seconds())
}

func (c *Collector) RecordSignOut(reason string) {
	c.signOuts.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordRedirect(target string) {
	c.redirects.WithLabelValues(target).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCheck(string)                  {}
func (Nop) RecordRefresh(string, time.Duration) {}
func (Nop) RecordSignOut(string)                {}
func (Nop) RecordRedirect(string)               {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute serves Handler under /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
