package metrics

import "github.com/prometheus/client_golang/prometheus"

// SquareMetrics exposes counters/histograms for outbound Square API calls.
type SquareMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewSquareMetrics(reg prometheus.Registerer) *SquareMetrics {
	m := &SquareMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "square",
			Name:      "api_requests_total",
			Help:      "Total outbound Square API requests",
		}, []string{"path", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "square",
			Name:      "api_latency_seconds",
			Help:      "Latency of Square API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency)
	return m
}

func (m *SquareMetrics) ObserveRequest(path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, status).Inc()
	m.requestLatency.WithLabelValues(path).Observe(seconds)
}

// SyncMetrics counts bootstrap/manual mirror runs per resource type.
type SyncMetrics struct {
	runsTotal *prometheus.CounterVec
	records   *prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Background sync attempts by resource type and outcome",
		}, []string{"resource", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Records mirrored into local storage",
		}, []string{"resource"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.records)
	return m
}

func (m *SyncMetrics) ObserveRun(resource, status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(resource, status).Inc()
}

func (m *SyncMetrics) AddRecords(resource string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(resource).Add(float64(n))
}

// BookingMetrics counts booking creations by outcome.
type BookingMetrics struct {
	createdTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Booking creation attempts by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal)
	return m
}

func (m *BookingMetrics) ObserveCreate(status string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(status).Inc()
}
