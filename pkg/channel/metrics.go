package channel

import "github.com/prometheus/client_golang/prometheus"

// Response outcomes recorded by Metrics.
const (
	OutcomeResolved    = "resolved"
	OutcomeRejected    = "rejected"
	OutcomeDropped     = "dropped"
	OutcomeUnsolicited = "unsolicited"
)

// Metrics are the prometheus collectors of a Channel.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Responses  *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	Pending    prometheus.Gauge
	Reconnects prometheus.Counter
}

// NewMetrics creates the channel collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warp_channel_requests_total",
				Help: "Requests sent to the engine",
			},
			[]string{"event"},
		),
		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warp_channel_responses_total",
				Help: "Envelopes received from the engine by outcome",
			},
			[]string{"event", "outcome"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warp_channel_request_duration_seconds",
				Help:    "Time from request to response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event"},
		),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warp_channel_pending_requests",
			Help: "Futures waiting for a response",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warp_channel_reconnects_total",
			Help: "Successful reconnections after a transport loss",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Responses, m.Latency, m.Pending, m.Reconnects)
	}
	return m
}

func (m *Metrics) sent(event string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(event).Inc()
}

func (m *Metrics) pending(delta int) {
	if m == nil {
		return
	}
	m.Pending.Add(float64(delta))
}

func (m *Metrics) received(event, outcome string) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) observe(event string, seconds float64) {
	if m == nil {
		return
	}
	m.Latency.WithLabelValues(event).Observe(seconds)
}

func (m *Metrics) reconnected() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}
