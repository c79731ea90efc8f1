package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"savingscircle/internal/domain"
)

// Metrics are the broker's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	Subscribers prometheus.Gauge
	Published   *prometheus.CounterVec
	Dropped     prometheus.Counter
	CatchUps    prometheus.Counter
	Relayed     *prometheus.CounterVec
}

// NewMetrics registers the broker collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "savingscircle_broker_subscribers",
			Help: "Current number of attached group viewers",
		}),
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "savingscircle_broker_events_published_total",
			Help: "Total number of events fanned out, by event type",
		}, []string{"type"}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "savingscircle_broker_subscribers_dropped_total",
			Help: "Total number of viewers detached because of a slow or failed connection",
		}),
		CatchUps: f.NewCounter(prometheus.CounterOpts{
			Name: "savingscircle_broker_catch_ups_total",
			Help: "Total number of catch-up messages sent to new viewers",
		}),
		Relayed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "savingscircle_broker_relayed_events_total",
			Help: "Total number of events exchanged with other instances, by direction",
		}, []string{"direction"}),
	}
}

func (m *Metrics) subscriberAdded() {
	if m != nil {
		m.Subscribers.Inc()
	}
}

func (m *Metrics) subscriberRemoved() {
	if m != nil {
		m.Subscribers.Dec()
	}
}

func (m *Metrics) published(t domain.EventType) {
	if m != nil {
		m.Published.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) dropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) catchUp() {
	if m != nil {
		m.CatchUps.Inc()
	}
}

func (m *Metrics) relayed(direction string) {
	if m != nil {
		m.Relayed.WithLabelValues(direction).Inc()
	}
}
