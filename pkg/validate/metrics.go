package validate

import "github.com/zeromicro/go-zero/core/metric"

var (
	validationsTotal = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "validate",
		Name:      "runs_total",
		Help:      "Validation runs by outcome",
		Labels:    []string{"outcome"},
	})

	issuesFound = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "validate",
		Name:      "issues_total",
		Help:      "Issues found by category and severity",
		Labels:    []string{"category", "severity"},
	})

	qualityScores = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "emailforge",
		Subsystem: "validate",
		Name:      "quality_score",
		Help:      "Quality score distribution",
		Labels:    []string{"kind"},
		Buckets:   []float64{10, 25, 50, 70, 85, 95, 100},
	})
)
