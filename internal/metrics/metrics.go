// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
)

var (
	// TranslatedEventsTotal counts client events produced by the translation engine.
	TranslatedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_translated_events_total",
			Help: "Client events emitted by the translation engine",
		},
		[]string{"from", "to"},
	)

	// DroppedDeltasTotal counts malformed deltas skipped by the translation engine.
	DroppedDeltasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_dropped_deltas_total",
			Help: "Malformed upstream deltas skipped",
		},
		[]string{"from", "to"},
	)

	// UpstreamRequestsTotal counts requests sent to providers by status class.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_upstream_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "status"},
	)

	// CredentialRefreshesTotal counts refresh attempts by outcome.
	CredentialRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_credential_refreshes_total",
			Help: "Credential refresh attempts",
		},
		[]string{"provider", "result"},
	)

	// BypassedRequestsTotal counts requests answered without a provider call.
	BypassedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_bypassed_requests_total",
			Help: "Requests answered by the bypass classifier",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(
		TranslatedEventsTotal,
		DroppedDeltasTotal,
		UpstreamRequestsTotal,
		CredentialRefreshesTotal,
		BypassedRequestsTotal,
	)
}

// ObserveDrops wires the dropped delta counter into a translator registry.
func ObserveDrops(r *sdktranslator.Registry) {
	r.SetDropObserver(func(from, to sdktranslator.Format, _ string) {
		DroppedDeltasTotal.WithLabelValues(from.String(), to.String()).Inc()
	})
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on. Zero means a transport error.
func StatusClass(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
