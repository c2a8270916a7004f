// Package metrics holds the Prometheus collectors for sort jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
)

// Registry is where every collector in this package is registered.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	JobsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ranksort_jobs_total",
		Help: "Sort jobs by element kind and outcome",
	}, []string{"kind", "outcome"})

	JobDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ranksort_job_duration_seconds",
		Help:    "Time from submission until the sorted result is on the host",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	}, []string{"kind"})

	JobsInflight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ranksort_jobs_inflight",
		Help: "Sort jobs submitted and not yet completed or failed",
	})

	PaddingBytes = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ranksort_padding_bytes_total",
		Help: "Zero bytes appended to inputs to meet storage alignment",
	}, []string{"kind"})
)

// Snapshot flattens counters and gauges into "name{label=value,...}" -> value.
// Histograms contribute their sample count under "name_count{...}".
func Snapshot() (map[string]float64, error) {
	families, err := Registry.Gather()
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName() + labelSuffix(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[mf.GetName()+"_count"+labelSuffix(m.GetLabel())] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	s := "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=" + l.GetValue()
	}
	return s + "}"
}
