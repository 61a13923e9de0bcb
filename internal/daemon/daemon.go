// Package daemon wires the storage, queue and delivery services together for
// the long-running forged process.
package daemon

import (
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
	"github.com/zeromicro/go-zero/core/prometheus"
	"github.com/zeromicro/go-zero/core/service"

	"github.com/emailforge/emailforge/internal/config"
	"github.com/emailforge/emailforge/pkg/db"
	"github.com/emailforge/emailforge/pkg/delivery"
	"github.com/emailforge/emailforge/pkg/engine"
	"github.com/emailforge/emailforge/pkg/mail"
	"github.com/emailforge/emailforge/pkg/queue"
)

// Daemon runs the delivery workers until shutdown.
type Daemon struct {
	config config.Config
	group  *service.ServiceGroup
}

// New builds the daemon from config: database, queue, event recorder and the
// quality-gated delivery engine.
func New(c config.Config) (*Daemon, error) {
	// Required for metric.CounterVec/HistogramVec/GaugeVec to record
	prometheus.Enable()

	database, err := db.Open(c.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	emailQueue, err := queue.New(database.DB, c.Queue.Name)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create queue: %w", err)
	}

	events, err := queue.NewEventRecorder(database.SqlConn())
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create event recorder: %w", err)
	}
	emailQueue.Events = events

	retryBackoff, _ := time.ParseDuration(c.Delivery.RetryBackoff)
	if retryBackoff == 0 {
		retryBackoff = 5 * time.Minute
	}
	maxBackoff, _ := time.ParseDuration(c.Delivery.MaxBackoff)
	if maxBackoff == 0 {
		maxBackoff = 4 * time.Hour
	}

	deliveryConfig := delivery.Config{
		MaxRetries:   c.Delivery.MaxRetries,
		RetryBackoff: retryBackoff,
		MaxBackoff:   maxBackoff,
		RateLimit:    c.Delivery.RateLimit,
		MinQuality:   c.Delivery.MinQuality,
	}

	smtpConfig := mail.Config{
		SMTPHost:  c.SMTP.Host,
		SMTPPort:  c.SMTP.Port,
		Username:  c.SMTP.Username,
		Password:  c.SMTP.Password,
		FromEmail: c.SMTP.FromEmail,
		FromName:  c.SMTP.FromName,
	}

	forge := engine.New(c.Policy)
	deliveryEngine := delivery.NewEngine(emailQueue, forge, smtpConfig, deliveryConfig)
	deliveryEngine.Reports = db.NewReportStore(database)

	// Cleanup via proc shutdown listeners, after the service group stops
	proc.AddShutdownListener(func() {
		logx.Info("Flushing email events")
		events.Flush()
	})
	proc.AddShutdownListener(func() {
		logx.Info("Closing database")
		database.Close()
	})

	group := service.NewServiceGroup()
	group.Add(newDeliveryService(deliveryEngine, c.Queue.Workers))

	logx.Infow("forged configured",
		logx.Field("database", c.Database.Path),
		logx.Field("queue", c.Queue.Name),
		logx.Field("workers", c.Queue.Workers),
		logx.Field("minQuality", c.Delivery.MinQuality),
	)

	return &Daemon{config: c, group: group}, nil
}

// Start starts all services. Blocks until shutdown signal.
func (d *Daemon) Start() {
	d.group.Start()
}

// Stop stops all services.
func (d *Daemon) Stop() {
	d.group.Stop()
}
