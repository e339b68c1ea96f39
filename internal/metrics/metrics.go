package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wirelobby"

// Metrics holds the lobby collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	connected   prometheus.Gauge
	rooms       prometheus.Gauge
	events      *prometheus.CounterVec
	eventErrors *prometheus.CounterVec
	dropped     prometheus.Counter
}

// New registers the lobby collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_endpoints",
			Help:      "Number of currently connected endpoints.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms in the directory.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events handled, by event type.",
		}, []string{"event"}),
		eventErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Inbound events rejected, by error code.",
		}, []string{"code"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Outbound events dropped because a mailbox was full.",
		}),
	}

	m.registry.MustRegister(
		m.connected,
		m.rooms,
		m.events,
		m.eventErrors,
		m.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EventErrors exposes the rejected events counter, labelled by error code.
func (m *Metrics) EventErrors() *prometheus.CounterVec {
	return m.eventErrors
}

func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.connected.Set(float64(n))
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
}

func (m *Metrics) ObserveEvent(event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveError(code string) {
	if m == nil {
		return
	}
	m.eventErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Dropped exposes the dropped events counter for tests and dashboards.
func (m *Metrics) Dropped() prometheus.Counter {
	return m.dropped
}
