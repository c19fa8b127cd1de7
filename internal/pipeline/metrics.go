package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeLLMMerged        = "llm_merged"
	outcomeRuleOnly         = "rule_only"
	outcomeValidationFailed = "validation_failed"
)

// Metrics instruments the extraction pipeline. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	extractions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incidentd",
			Name:      "extractions_total",
			Help:      "Completed extractions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incidentd",
			Name:      "extraction_duration_seconds",
			Help:      "End-to-end extraction latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.extractions, m.duration)
	return m
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
