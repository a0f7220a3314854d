package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "outreach"

// OutreachMetrics exposes counters/histograms for calling, follow-up and webhook flows.
type OutreachMetrics struct {
	callsTotal      *prometheus.CounterVec
	dialJobsTotal   *prometheus.CounterVec
	followUpsTotal  *prometheus.CounterVec
	webhooksTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewOutreachMetrics(reg prometheus.Registerer) *OutreachMetrics {
	m := &OutreachMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialer",
			Name:      "calls_total",
			Help:      "Outbound calls by mode (dummy/live) and outcome",
		}, []string{"mode", "outcome"}),
		dialJobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialer",
			Name:      "jobs_total",
			Help:      "Dial queue jobs by outcome",
		}, []string{"outcome"}),
		followUpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "followups",
			Name:      "dispatched_total",
			Help:      "Follow-up dispatch attempts by outcome",
		}, []string{"outcome"}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voice",
			Name:      "webhook_total",
			Help:      "Twilio voice webhooks by kind and status",
		}, []string{"kind", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.dialJobsTotal, m.followUpsTotal, m.webhooksTotal, m.requestDuration)
	return m
}

func (m *OutreachMetrics) ObserveCall(dummy bool, outcome string) {
	if m == nil {
		return
	}
	mode := "live"
	if dummy {
		mode = "dummy"
	}
	m.callsTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *OutreachMetrics) ObserveDialJob(outcome string) {
	if m == nil {
		return
	}
	m.dialJobsTotal.WithLabelValues(outcome).Inc()
}

func (m *OutreachMetrics) ObserveFollowUp(outcome string) {
	if m == nil {
		return
	}
	m.followUpsTotal.WithLabelValues(outcome).Inc()
}

func (m *OutreachMetrics) ObserveWebhook(kind, status string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(kind, status).Inc()
}

func (m *OutreachMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
