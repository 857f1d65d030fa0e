package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports service operation metrics through a
// prometheus registry.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors with the supplied registerer. A nil registerer falls back to the
// default prometheus registry.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plantcore",
			Subsystem: "care_service",
			Name:      "operation_duration_seconds",
			Help:      "Duration of care service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantcore",
			Subsystem: "care_service",
			Name:      "operation_results_total",
			Help:      "Care service operation outcomes by status.",
		}, []string{"operation", "status"}),
	}
	for _, c := range []prometheus.Collector{rec.durations, rec.results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// RecordDuration implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) RecordDuration(_ context.Context, operation string, d time.Duration) {
	if operation == "" {
		return
	}
	r.durations.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordResult implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) RecordResult(_ context.Context, operation, status string) {
	if operation == "" || status == "" {
		return
	}
	r.results.WithLabelValues(operation, status).Inc()
}
