// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Drop reasons for inbound frames.
const (
	ReasonMalformed    = "malformed"
	ReasonUnknownEvent = "unknown_event"
	ReasonRateLimited  = "rate_limited"
)

// Metrics holds the relay collectors. All methods are safe on a nil receiver
// so components can run without instrumentation.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	EventsReceived    *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
	Rejected          prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "active_connections",
			Help:      "Number of live connections.",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "active_rooms",
			Help:      "Number of rooms with at least one member.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "events_received_total",
			Help:      "Inbound protocol events accepted for dispatch.",
		}, []string{"event"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped before reaching the broker.",
		}, []string{"reason"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "deliveries_total",
			Help:      "Outbound emits by event and result.",
		}, []string{"event", "result"}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "connections_rejected_total",
			Help:      "Connections refused at admission.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ActiveRooms,
		m.EventsReceived,
		m.FramesDropped,
		m.Deliveries,
		m.Rejected,
	)
	return m
}

// NewWithRuntime is New plus the Go runtime and process collectors.
func NewWithRuntime(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.ActiveConnections.Set(float64(n))
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.ActiveRooms.Set(float64(n))
}

func (m *Metrics) EventReceived(event string) {
	if m == nil {
		return
	}
	m.EventsReceived.WithLabelValues(event).Inc()
}

func (m *Metrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Delivered(event string, sent, dropped int) {
	if m == nil {
		return
	}
	if sent > 0 {
		m.Deliveries.WithLabelValues(event, "sent").Add(float64(sent))
	}
	if dropped > 0 {
		m.Deliveries.WithLabelValues(event, "dropped").Add(float64(dropped))
	}
}

func (m *Metrics) ConnectionRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}
