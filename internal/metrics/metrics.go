package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the relay. Everything is
// registered on a caller-supplied registry so tests stay isolated.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	UpstreamErrorsTotal prometheus.Counter
	StreamEventsTotal   prometheus.Counter
	InFlightRequests    prometheus.Gauge
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total HTTP requests handled, by path and status code",
			},
			[]string{"path", "status"},
		),
		UpstreamErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_upstream_errors_total",
				Help: "Total failed upstream chat-completion calls",
			},
		),
		StreamEventsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_stream_events_total",
				Help: "Total SSE events forwarded to callers",
			},
		),
		InFlightRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_in_flight_requests",
				Help: "Requests currently being served",
			},
		),
	}
}
