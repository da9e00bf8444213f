package metrics

import "github.com/prometheus/client_golang/prometheus"

// JobMetrics exposes counters/histograms for the lifecycle jobs.
type JobMetrics struct {
	runsTotal         *prometheus.CounterVec
	remindersSent     *prometheus.CounterVec
	holdCancellations prometheus.Counter
	quarantinedDocs   *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	m := &JobMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gendei",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total triggered job runs",
		}, []string{"job", "status"}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gendei",
			Subsystem: "jobs",
			Name:      "reminders_sent_total",
			Help:      "Total reminders dispatched to the gateway",
		}, []string{"kind"}),
		holdCancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gendei",
			Subsystem: "jobs",
			Name:      "hold_cancellations_total",
			Help:      "Total appointments cancelled for unpaid deposits",
		}),
		quarantinedDocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gendei",
			Subsystem: "jobs",
			Name:      "quarantined_docs_total",
			Help:      "Total malformed documents quarantined during scans",
		}, []string{"source"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gendei",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of one full job run",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.remindersSent, m.holdCancellations, m.quarantinedDocs, m.runDuration)
	return m
}

func (m *JobMetrics) ObserveRun(job, status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(job, status).Inc()
	m.runDuration.WithLabelValues(job).Observe(seconds)
}

func (m *JobMetrics) ObserveReminderSent(kind string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(kind).Inc()
}

func (m *JobMetrics) ObserveHoldCancellation() {
	if m == nil {
		return
	}
	m.holdCancellations.Inc()
}

func (m *JobMetrics) ObserveQuarantine(source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.quarantinedDocs.WithLabelValues(source).Add(float64(count))
}
