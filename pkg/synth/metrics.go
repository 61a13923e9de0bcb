package synth

import "github.com/zeromicro/go-zero/core/metric"

var (
	synthDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "emailforge",
		Subsystem: "synth",
		Name:      "duration_seconds",
		Help:      "Document synthesis duration in seconds",
		Labels:    []string{"style"},
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25},
	})

	documentsSynthesized = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "synth",
		Name:      "documents_total",
		Help:      "Documents synthesized",
		Labels:    []string{"style"},
	})
)
