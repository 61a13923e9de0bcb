package delivery

import "github.com/zeromicro/go-zero/core/metric"

var (
	emailsSent = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "delivery",
		Name:      "emails_sent_total",
		Help:      "Total emails sent successfully",
	})

	emailsFailed = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "delivery",
		Name:      "emails_failed_total",
		Help:      "Total emails failed permanently",
		Labels:    []string{"reason"},
	})

	emailsRetried = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "delivery",
		Name:      "emails_retried_total",
		Help:      "Total email delivery retries",
	})

	qualityRepairs = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "emailforge",
		Subsystem: "delivery",
		Name:      "quality_repairs_total",
		Help:      "Repairs applied by the pre-send quality gate",
	})

	deliveryDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "emailforge",
		Subsystem: "delivery",
		Name:      "duration_seconds",
		Help:      "Email delivery duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	queueDepth = metric.NewGaugeVec(&metric.GaugeVecOpts{
		Namespace: "emailforge",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Current queue depth by status",
		Labels:    []string{"status"},
	})
)
