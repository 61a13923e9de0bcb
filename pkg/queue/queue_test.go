package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailforge/emailforge/pkg/db"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	q, err := New(database.DB, "outbound")
	require.NoError(t, err)
	return q
}

func TestEnqueueReceiveRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{
		Recipients:   []string{"a@example.com", "b@example.com"},
		Subject:      "Monthly digest",
		HTML:         "<html><body><p>hi</p></body></html>",
		QualityScore: 96,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, msg, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NotNil(t, msg)

	assert.Equal(t, id, job.ID)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, job.Recipients)
	assert.Equal(t, "Monthly digest", job.Subject)
	assert.Equal(t, 96, job.QualityScore)
	assert.Equal(t, PriorityNormal, job.Priority)
	assert.Equal(t, 3, job.MaxAttempts)

	require.NoError(t, q.MarkSent(ctx, msg, job.ID, "msg-1"))

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "sent", status.Status)
}

func TestScheduledJobsAreNotVisibleEarly(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Schedule(ctx, Job{
		Recipients: []string{"a@example.com"},
		Subject:    "Later",
		HTML:       "<html><body>x</body></html>",
	}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	job, msg, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Nil(t, msg)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["pending"])
}

func TestMarkRetryThenFailed(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{
		Recipients: []string{"a@example.com"},
		Subject:    "Flaky",
		HTML:       "<html><body>x</body></html>",
	})
	require.NoError(t, err)

	_, msg, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.NoError(t, q.MarkRetry(ctx, msg, id, time.Hour, assert.AnError))

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "retrying", status.Status)
	assert.Equal(t, 1, status.Attempts)
	assert.NotEmpty(t, status.Error)

	require.NoError(t, q.MarkFailed(ctx, msg, id, assert.AnError))

	status, err = q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "failed", status.Status)
}

func TestGetStatusUnknownID(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.GetStatus(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestListFiltersByStatus(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, Job{
			Recipients: []string{"a@example.com"},
			Subject:    "n",
			HTML:       "<html><body>x</body></html>",
		})
		require.NoError(t, err)
	}

	pending, err := q.List(ctx, "pending", 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	sent, err := q.List(ctx, "sent", 10)
	require.NoError(t, err)
	assert.Empty(t, sent)
}
