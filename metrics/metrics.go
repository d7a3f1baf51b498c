// Package metrics exposes Prometheus instrumentation for the redirection
// and attribution engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry state.
type Metrics struct {
	RedirectsTotal    *prometheus.CounterVec
	ClicksRecorded    prometheus.Counter
	ClicksDropped     prometheus.Counter
	ResolveDuration   prometheus.Histogram
	DomainVerifyTotal *prometheus.CounterVec
}

// New registers all engine metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RedirectsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "utmkit_redirects_total",
			Help: "Redirect requests by outcome (ok, not_found, expired, domain_unverified, error)",
		}, []string{"outcome"}),
		ClicksRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utmkit_clicks_recorded_total",
			Help: "Attribution events durably written to the store",
		}),
		ClicksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utmkit_clicks_dropped_total",
			Help: "Attribution events lost to a full queue or sustained store outage",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "utmkit_resolve_duration_seconds",
			Help:    "Duration of short-code resolution (redirect critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DomainVerifyTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "utmkit_domain_verifications_total",
			Help: "Domain verification attempts by result (verified, not_verified)",
		}, []string{"result"}),
	}
}

// CountRedirect records a redirect request outcome.
func (m *Metrics) CountRedirect(outcome string) {
	if m == nil {
		return
	}
	m.RedirectsTotal.WithLabelValues(outcome).Inc()
}

// CountClickRecorded records a durably written attribution event.
func (m *Metrics) CountClickRecorded() {
	if m == nil {
		return
	}
	m.ClicksRecorded.Inc()
}

// CountClickDropped records a lost attribution event.
func (m *Metrics) CountClickDropped() {
	if m == nil {
		return
	}
	m.ClicksDropped.Inc()
}

// ObserveResolve records the duration of a resolution, measured from start.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

// CountDomainVerify records a verification attempt result.
func (m *Metrics) CountDomainVerify(result string) {
	if m == nil {
		return
	}
	m.DomainVerifyTotal.WithLabelValues(result).Inc()
}
