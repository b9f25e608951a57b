package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a Client updates while streaming.
// A nil *Metrics disables collection.
type Metrics struct {
	attempts prometheus.Counter
	frames   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewMetrics creates the transport collectors and registers them with reg.
// If reg is nil, the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serverevents",
			Subsystem: "transport",
			Name:      "connection_attempts_total",
			Help:      "Total number of connection attempts, including reconnections",
		}),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "serverevents",
				Subsystem: "transport",
				Name:      "frames_total",
				Help:      "Total number of frames received by kind",
			},
			[]string{"kind"}, // event, comment, connected
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "serverevents",
				Subsystem: "transport",
				Name:      "errors_total",
				Help:      "Total number of connection errors by retry class",
			},
			[]string{"class"}, // temporary, permanent
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serverevents",
			Subsystem: "transport",
			Name:      "retries_total",
			Help:      "Total number of scheduled reconnections",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.attempts, m.frames, m.errors, m.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) attempt() {
	if m != nil {
		m.attempts.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) frame(f Frame) {
	if m == nil {
		return
	}
	switch f.(type) {
	case Event:
		m.frames.WithLabelValues("event").Inc()
	case Comment:
		m.frames.WithLabelValues("comment").Inc()
	case Connected:
		m.frames.WithLabelValues("connected").Inc()
	}
}

func (m *Metrics) failure(e *Error) {
	if m == nil {
		return
	}
	if e.Temporary() || e.Timeout() {
		m.errors.WithLabelValues("temporary").Inc()
	} else {
		m.errors.WithLabelValues("permanent").Inc()
	}
}
