// Package delivery drains the outbound queue: every job passes the quality
// gate (validate, auto-fix once, re-validate) before it is handed to SMTP,
// with rate limiting and exponential retry around the send.
package delivery

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/rescue"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/core/threading"
	"golang.org/x/time/rate"
	"maragu.dev/goqite"

	"github.com/emailforge/emailforge/pkg/db"
	"github.com/emailforge/emailforge/pkg/engine"
	"github.com/emailforge/emailforge/pkg/mail"
	"github.com/emailforge/emailforge/pkg/queue"
	"github.com/emailforge/emailforge/pkg/validate"
)

// Config holds delivery engine configuration.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	RateLimit    int // emails per minute
	MinQuality   int // quality gate threshold, 0 disables the gate
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		RetryBackoff: 5 * time.Minute,
		MaxBackoff:   4 * time.Hour,
		RateLimit:    60,
		MinQuality:   70,
	}
}

// Engine drains the queue with a pool of workers.
type Engine struct {
	config      Config
	queue       *queue.Queue
	forge       *engine.Service
	smtpConfig  mail.Config
	rateLimiter *rate.Limiter
	running     *syncx.AtomicBool

	// Reports, when set, persists the gate's verdict for every job.
	Reports *db.ReportStore

	ctx    context.Context
	cancel context.CancelFunc
	group  *threading.RoutineGroup
}

// NewEngine creates a delivery engine.
func NewEngine(q *queue.Queue, forge *engine.Service, smtp mail.Config, cfg Config) *Engine {
	// Rate limiter: N emails per minute
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit)), 1)

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		config:      cfg,
		queue:       q,
		forge:       forge,
		smtpConfig:  smtp,
		rateLimiter: limiter,
		running:     syncx.NewAtomicBool(),
		ctx:         ctx,
		cancel:      cancel,
		group:       threading.NewRoutineGroup(),
	}
}

// Start starts the delivery engine with the specified number of workers.
func (e *Engine) Start(workers int) {
	if !e.running.CompareAndSwap(false, true) {
		return // Already running
	}

	logx.Infow("Delivery engine started", logx.Field("workers", workers))
	for i := 0; i < workers; i++ {
		workerID := i
		e.group.RunSafe(func() { e.worker(workerID) })
	}
}

// Stop gracefully stops the delivery engine.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return // Already stopped
	}

	logx.Info("Delivery engine stopping, waiting for workers")
	e.cancel()
	e.group.Wait()
	logx.Info("Delivery engine stopped")
}

func (e *Engine) worker(id int) {
	backoff := 100 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
			job, msg, err := e.queue.Receive(e.ctx)
			if err != nil {
				time.Sleep(backoff)
				if backoff < maxBackoff {
					backoff = min(backoff*2, maxBackoff)
				}
				continue
			}
			if job == nil {
				// No work available — adaptive backoff
				time.Sleep(backoff)
				if backoff < maxBackoff {
					backoff = min(backoff*2, maxBackoff)
				}

				// Periodically update queue depth gauge
				e.updateQueueDepth()
				continue
			}

			backoff = 100 * time.Millisecond // Reset on work found
			e.processJob(job, msg)
		}
	}
}

func (e *Engine) processJob(job *queue.Job, msg *goqite.Message) {
	// Enrich context with per-job fields so all logx calls with ctx carry them
	ctx := logx.ContextWithFields(e.ctx,
		logx.Field("job_id", job.ID),
		logx.Field("recipients", len(job.Recipients)),
	)

	// Panic recovery: mark job failed and record metric if processJob panics
	defer rescue.RecoverCtx(ctx, func() {
		emailsFailed.Inc("panic")
		e.queue.MarkFailed(ctx, msg, job.ID, fmt.Errorf("panic during delivery"))
	})

	logx.WithContext(ctx).Info("Processing email")

	start := time.Now()

	if err := e.rateLimiter.Wait(ctx); err != nil {
		e.handleError(ctx, job, msg, err)
		return
	}

	html, err := e.gate(ctx, job)
	if err != nil {
		// Quality failures never improve with retries.
		e.queue.MarkFailed(ctx, msg, job.ID, err)
		emailsFailed.Inc("quality_gate")
		e.recordEvent(job.ID, "rejected", err.Error())
		logx.WithContext(ctx).Errorf("Email rejected by quality gate: %v", err)
		return
	}

	// Send to each recipient, collecting failures
	var sendErrors []string
	for _, recipient := range job.Recipients {
		if err := mail.Send(e.smtpConfig, recipient, job.Subject, html); err != nil {
			sendErrors = append(sendErrors, fmt.Sprintf("send to %s: %v", recipient, err))
		}
	}

	if len(sendErrors) > 0 {
		e.handleError(ctx, job, msg, fmt.Errorf("%s", strings.Join(sendErrors, "; ")))
		return
	}

	e.queue.MarkSent(ctx, msg, job.ID, "")
	emailsSent.Inc()
	deliveryDuration.ObserveFloat(time.Since(start).Seconds())
	e.recordEvent(job.ID, "sent", "")

	logx.WithContext(ctx).Info("Email sent")
}

// gate validates the job's HTML against the quality threshold, repairing it
// once when the raw document falls short. Returns the HTML to send.
func (e *Engine) gate(ctx context.Context, job *queue.Job) (string, error) {
	if e.config.MinQuality <= 0 {
		return job.HTML, nil
	}

	metrics, err := e.forge.Validate(job.HTML)
	if err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}
	if metrics.QualityScore >= e.config.MinQuality {
		e.saveReport(ctx, job.ID, metrics)
		return job.HTML, nil
	}

	fixed, err := e.forge.AutoFix(job.HTML)
	if err != nil {
		return "", fmt.Errorf("auto-fix: %w", err)
	}
	e.saveReport(ctx, job.ID, fixed.Metrics)
	if fixed.Metrics.QualityScore < e.config.MinQuality {
		return "", fmt.Errorf("quality score %d below the %d minimum after repair",
			fixed.Metrics.QualityScore, e.config.MinQuality)
	}

	logx.WithContext(ctx).Infow("Email repaired before delivery",
		logx.Field("repairs", fixed.Summary.Total()),
		logx.Field("quality", fixed.Metrics.QualityScore))
	qualityRepairs.Add(float64(fixed.Summary.Total()))

	return fixed.HTML, nil
}

// saveReport persists the gate's verdict, best effort.
func (e *Engine) saveReport(ctx context.Context, emailID string, m *validate.Metrics) {
	if e.Reports == nil {
		return
	}
	if err := e.Reports.Save(ctx, emailID, m); err != nil {
		logx.WithContext(ctx).Errorf("Failed to persist compliance report: %v", err)
	}
}

func (e *Engine) handleError(ctx context.Context, job *queue.Job, msg *goqite.Message, err error) {
	job.Attempts++
	job.Error = err.Error()

	// Classify failure reason for metrics
	reason := "transient"
	if isPermanentFailure(err) {
		reason = "permanent"
	}

	if isPermanentFailure(err) || job.Attempts >= job.MaxAttempts {
		e.queue.MarkFailed(ctx, msg, job.ID, err)
		emailsFailed.Inc(reason)
		e.recordEvent(job.ID, "failed", err.Error())
		logx.WithContext(ctx).Errorf("Email delivery failed permanently: %v", err)
		return
	}

	// Schedule retry with backoff
	backoff := e.calculateBackoff(job.Attempts)
	e.queue.MarkRetry(ctx, msg, job.ID, backoff, err)
	emailsRetried.Inc()
	e.recordEvent(job.ID, "retry", fmt.Sprintf("attempt %d, backoff %s: %v", job.Attempts, backoff, err))

	logx.WithContext(ctx).Infof("Email delivery retrying in %s: %v", backoff, err)
}

func (e *Engine) calculateBackoff(attempts int) time.Duration {
	backoff := e.config.RetryBackoff * time.Duration(math.Pow(2, float64(attempts-1)))
	if backoff > e.config.MaxBackoff {
		return e.config.MaxBackoff
	}
	return backoff
}

// isPermanentFailure checks if the error indicates a permanent failure.
func isPermanentFailure(err error) bool {
	msg := err.Error()
	// SMTP 5xx codes are permanent failures
	permanentCodes := []string{"550", "551", "552", "553", "554"}
	for _, code := range permanentCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// recordEvent writes an event through the queue's BulkInserter if available.
func (e *Engine) recordEvent(emailID, eventType, details string) {
	if e.queue.Events != nil {
		e.queue.Events.Record(emailID, eventType, details)
	}
}

// updateQueueDepth refreshes the queue depth gauge from current stats.
func (e *Engine) updateQueueDepth() {
	stats, err := e.queue.Stats(e.ctx)
	if err != nil {
		return
	}
	for status, count := range stats {
		queueDepth.Set(float64(count), status)
	}
}

// SendNow runs the quality gate and sends immediately without queueing.
func (e *Engine) SendNow(ctx context.Context, recipients []string, subject, html string) error {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	gated, err := e.gate(ctx, &queue.Job{HTML: html})
	if err != nil {
		return err
	}

	for _, recipient := range recipients {
		if err := mail.Send(e.smtpConfig, recipient, subject, gated); err != nil {
			return fmt.Errorf("send to %s: %w", recipient, err)
		}
	}

	return nil
}
