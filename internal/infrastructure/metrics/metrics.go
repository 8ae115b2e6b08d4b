// Package metrics records client activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the client metrics. It satisfies api.Observer and
// realtime.Observer.
type Recorder struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	EventsTotal      *prometheus.CounterVec
	SocketConnected  prometheus.Gauge
	ConnectionsTotal prometheus.Counter
}

// New creates a recorder on its own registry.
func New(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "The total number of API round trips",
		}, []string{"operation", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Time taken by API round trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "The total number of real-time events received",
		}, []string{"type"}),
		SocketConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connected",
			Help:      "1 while the real-time connection is open",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_connections_total",
			Help:      "The total number of real-time connections established",
		}),
	}
}

// ObserveRequest records one API round trip. Code is "error" when no
// response was received.
func (r *Recorder) ObserveRequest(op string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.RequestsTotal.WithLabelValues(op, code).Inc()
	r.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveConnected records a real-time connection state change.
func (r *Recorder) ObserveConnected(connected bool) {
	if connected {
		r.SocketConnected.Set(1)
		r.ConnectionsTotal.Inc()
		return
	}
	r.SocketConnected.Set(0)
}

// ObserveEvent records one inbound real-time event.
func (r *Recorder) ObserveEvent(eventType string) {
	r.EventsTotal.WithLabelValues(eventType).Inc()
}

// Registry returns the registry the metrics are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
