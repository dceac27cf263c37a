package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the SMS estimate flow.
type ConversationMetrics struct {
	inboundTotal     *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	estimatorLatency prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autobody",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound messages by engine outcome",
		}, []string{"outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autobody",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Total calendar booking attempts",
		}, []string{"status"}),
		estimatorLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autobody",
			Subsystem: "conversation",
			Name:      "estimator_latency_seconds",
			Help:      "Latency of damage estimator calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.bookingsTotal, m.estimatorLatency)
	return m
}

func (m *ConversationMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *ConversationMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveEstimatorLatency(seconds float64) {
	if m == nil {
		return
	}
	m.estimatorLatency.Observe(seconds)
}
