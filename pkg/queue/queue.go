// Package queue provides the outbound email queue using goqite.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"maragu.dev/goqite"
)

// Priority levels for email delivery.
const (
	PriorityLow    = 0 // digests, announcements
	PriorityNormal = 1 // transactional
	PriorityHigh   = 2 // password reset, security alerts
)

// Job is one outbound email: pre-synthesized HTML plus the quality score it
// carried when it was enqueued. The delivery engine re-validates before
// sending; the stored score is the producer's claim, not a gate decision.
type Job struct {
	ID           string     `json:"id"`
	Recipients   []string   `json:"recipients"`
	Subject      string     `json:"subject"`
	HTML         string     `json:"html"`
	QualityScore int        `json:"quality_score"`
	Status       string     `json:"status,omitempty"`
	Priority     int        `json:"priority"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Queue manages email jobs using goqite. Events, when set, batches delivery
// event rows alongside status updates.
type Queue struct {
	db     *sql.DB
	queue  *goqite.Queue
	name   string
	Events *EventRecorder
}

// New creates an email queue backed by the given database.
func New(db *sql.DB, name string) (*Queue, error) {
	if err := goqite.Setup(context.Background(), db); err != nil {
		return nil, fmt.Errorf("setup goqite: %w", err)
	}

	q := goqite.New(goqite.NewOpts{
		DB:   db,
		Name: name,
	})

	return &Queue{
		db:    db,
		queue: q,
		name:  name,
	}, nil
}

// Enqueue adds an email job to the queue and its tracking row to the emails
// table. Returns the job ID.
func (q *Queue) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = 3
	}
	if job.Priority == 0 {
		job.Priority = PriorityNormal
	}
	job.CreatedAt = time.Now()

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	var delay time.Duration
	if job.ScheduledAt != nil && job.ScheduledAt.After(time.Now()) {
		delay = time.Until(*job.ScheduledAt)
	}

	if err := q.queue.Send(ctx, goqite.Message{
		Body:  body,
		Delay: delay,
	}); err != nil {
		return "", fmt.Errorf("send to queue: %w", err)
	}

	if err := q.storeEmail(ctx, job); err != nil {
		return "", fmt.Errorf("store email: %w", err)
	}

	return job.ID, nil
}

// Schedule adds an email job to be sent at a specific time.
func (q *Queue) Schedule(ctx context.Context, job Job, at time.Time) (string, error) {
	job.ScheduledAt = &at
	return q.Enqueue(ctx, job)
}

// Receive gets the next job from the queue. Returns (nil, nil, nil) when no
// job is ready. The message handle is needed to ack, extend or retry.
func (q *Queue) Receive(ctx context.Context) (*Job, *goqite.Message, error) {
	msg, err := q.queue.Receive(ctx)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, nil, nil
	}

	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return nil, msg, fmt.Errorf("unmarshal job: %w", err)
	}

	return &job, msg, nil
}

// Extend extends the timeout for a message being processed.
func (q *Queue) Extend(ctx context.Context, msg *goqite.Message, d time.Duration) error {
	return q.queue.Extend(ctx, msg.ID, d)
}

// MarkSent acks the message and marks the tracking row sent.
func (q *Queue) MarkSent(ctx context.Context, msg *goqite.Message, id, messageID string) error {
	if err := q.queue.Delete(ctx, msg.ID); err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE emails
		SET status = 'sent', sent_at = CURRENT_TIMESTAMP,
		    message_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, messageID, id)
	return err
}

// MarkFailed acks the message and marks the tracking row permanently failed.
func (q *Queue) MarkFailed(ctx context.Context, msg *goqite.Message, id string, cause error) error {
	if msg != nil {
		if err := q.queue.Delete(ctx, msg.ID); err != nil {
			return fmt.Errorf("ack message: %w", err)
		}
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE emails
		SET status = 'failed', error = ?, updated_at = CURRENT_TIMESTAMP,
		    attempts = attempts + 1
		WHERE id = ?
	`, cause.Error(), id)
	return err
}

// MarkRetry pushes the message's redelivery out by the backoff and records
// the attempt on the tracking row.
func (q *Queue) MarkRetry(ctx context.Context, msg *goqite.Message, id string, backoff time.Duration, cause error) error {
	if err := q.queue.Extend(ctx, msg.ID, backoff); err != nil {
		return fmt.Errorf("extend message: %w", err)
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE emails
		SET status = 'retrying', error = ?, updated_at = CURRENT_TIMESTAMP,
		    attempts = attempts + 1
		WHERE id = ?
	`, cause.Error(), id)
	return err
}

// GetStatus returns the tracking row of an email by ID, or nil when unknown.
func (q *Queue) GetStatus(ctx context.Context, id string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, recipients, subject, html, quality_score, status,
		       priority, attempts, max_attempts, scheduled_at, error, created_at
		FROM emails WHERE id = ?
	`, id)

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// List returns tracking rows with an optional status filter, newest first.
func (q *Queue) List(ctx context.Context, status string, limit int) ([]*Job, error) {
	query := `
		SELECT id, recipients, subject, html, quality_score, status,
		       priority, attempts, max_attempts, scheduled_at, error, created_at
		FROM emails
	`
	args := []any{}

	if status != "" && status != "all" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// Stats returns tracking row counts by status.
func (q *Queue) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) as count FROM emails GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}

	return stats, rows.Err()
}

func scanJob(scan func(...any) error) (*Job, error) {
	var job Job
	var recipients string
	var scheduledAt sql.NullTime
	var errStr sql.NullString

	err := scan(
		&job.ID, &recipients, &job.Subject, &job.HTML, &job.QualityScore,
		&job.Status, &job.Priority, &job.Attempts, &job.MaxAttempts,
		&scheduledAt, &errStr, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(recipients), &job.Recipients)
	if errStr.Valid {
		job.Error = errStr.String
	}
	if scheduledAt.Valid {
		job.ScheduledAt = &scheduledAt.Time
	}
	return &job, nil
}

func (q *Queue) storeEmail(ctx context.Context, job Job) error {
	recipients, _ := json.Marshal(job.Recipients)

	var scheduledAt sql.NullTime
	if job.ScheduledAt != nil {
		scheduledAt = sql.NullTime{Time: *job.ScheduledAt, Valid: true}
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO emails (id, recipients, subject, html, quality_score, status,
		                    priority, attempts, max_attempts, scheduled_at, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?, 0, ?, ?, CURRENT_TIMESTAMP)
	`, job.ID, string(recipients), job.Subject, job.HTML, job.QualityScore,
		job.Priority, job.MaxAttempts, scheduledAt)

	return err
}
