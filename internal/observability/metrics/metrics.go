package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the reservation flow.
type BookingMetrics struct {
	holdsCreated    prometheus.Counter
	holdConflicts   prometheus.Counter
	holdConversions prometheus.Counter
	holdsExpired    *prometheus.CounterVec
	ruleFallbacks   *prometheus.CounterVec
	holdLatency     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		holdsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "holds_created_total",
			Help:      "Total slot holds successfully created",
		}),
		holdConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "hold_conflicts_total",
			Help:      "Total hold attempts rejected because the interval was taken",
		}),
		holdConversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "hold_conversions_total",
			Help:      "Total holds converted into appointments",
		}),
		holdsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "holds_expired_total",
			Help:      "Total holds transitioned to expired, by detection path",
		}, []string{"path"}),
		ruleFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "rule_fallbacks_total",
			Help:      "Total rule lookups that degraded to safe defaults",
		}, []string{"rule"}),
		holdLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climbup",
			Subsystem: "booking",
			Name:      "hold_acquire_seconds",
			Help:      "Latency of atomic hold acquisition",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.holdsCreated, m.holdConflicts, m.holdConversions, m.holdsExpired, m.ruleFallbacks, m.holdLatency)
	return m
}

func (m *BookingMetrics) ObserveHoldCreated(seconds float64) {
	if m == nil {
		return
	}
	m.holdsCreated.Inc()
	m.holdLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveHoldConflict() {
	if m == nil {
		return
	}
	m.holdConflicts.Inc()
}

func (m *BookingMetrics) ObserveHoldConverted() {
	if m == nil {
		return
	}
	m.holdConversions.Inc()
}

// ObserveHoldExpired records an expiry; path is "lazy" for read-time
// transitions and "sweep" for the background sweeper.
func (m *BookingMetrics) ObserveHoldExpired(path string) {
	if m == nil {
		return
	}
	m.holdsExpired.WithLabelValues(path).Inc()
}

func (m *BookingMetrics) ObserveRuleFallback(rule string) {
	if m == nil {
		return
	}
	m.ruleFallbacks.WithLabelValues(rule).Inc()
}
