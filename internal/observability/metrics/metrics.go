package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead intake flow. It
// satisfies leads.IntakeObserver, events.HandlerObserver and
// notify.EmailObserver.
type LeadMetrics struct {
	outcomesTotal *prometheus.CounterVec
	sinkLatency   *prometheus.HistogramVec
	handlersTotal *prometheus.CounterVec
	emailsTotal   *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roofing",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome and first failing field",
		}, []string{"outcome", "field"}),
		sinkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roofing",
			Subsystem: "leads",
			Name:      "sink_latency_seconds",
			Help:      "Latency of forwarding a lead to its sink",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		handlersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roofing",
			Subsystem: "events",
			Name:      "handler_total",
			Help:      "Lead event handler runs by handler and status",
		}, []string{"handler", "status"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roofing",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Outgoing lead emails by kind and status",
		}, []string{"kind", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roofing",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomesTotal, m.sinkLatency, m.handlersTotal, m.emailsTotal, m.httpLatency)
	return m
}

func (m *LeadMetrics) ObserveOutcome(kind, field string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(kind, field).Inc()
}

func (m *LeadMetrics) ObserveSink(seconds float64, err error) {
	if m == nil {
		return
	}
	m.sinkLatency.WithLabelValues(status(err)).Observe(seconds)
}

func (m *LeadMetrics) ObserveHandler(name string, err error) {
	if m == nil {
		return
	}
	m.handlersTotal.WithLabelValues(name, status(err)).Inc()
}

func (m *LeadMetrics) ObserveEmail(kind string, err error) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(kind, status(err)).Inc()
}

func (m *LeadMetrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, code).Observe(seconds)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
