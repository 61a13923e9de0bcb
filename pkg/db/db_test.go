package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailforge/emailforge/pkg/validate"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	d, err := Open(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenCreatesSchema(t *testing.T) {
	d := openTestDB(t)

	for _, table := range []string{"reports", "emails", "email_events"} {
		var name string
		err := d.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.db")

	d1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d1.Close())

	d2, err := Open(path)
	require.NoError(t, err)
	defer d2.Close()
	assert.Equal(t, path, d2.Path())
}

func sampleMetrics() *validate.Metrics {
	return &validate.Metrics{
		ReportID:     "11111111-2222-3333-4444-555555555555",
		QualityScore: 84,
		Accessibility: validate.AccessibilityReport{
			Score: 75,
			Level: "A",
			Issues: []validate.Issue{{
				Severity:      validate.SeverityCritical,
				Category:      validate.CategoryAccessibility,
				Message:       "image is missing alternative text",
				WCAGCriterion: "1.1.1",
				AutoFixable:   true,
			}},
		},
		SpamRisk: validate.SpamReport{Score: 8},
		Compatibility: map[validate.Client]bool{
			validate.ClientOutlook:    true,
			validate.ClientOutlookCom: true,
			validate.ClientGmail:      true,
			validate.ClientAppleMail:  false,
			validate.ClientYahoo:      true,
		},
	}
}

func TestReportStoreRoundTrip(t *testing.T) {
	store := NewReportStore(openTestDB(t))
	ctx := context.Background()

	m := sampleMetrics()
	require.NoError(t, store.Save(ctx, "email-1", m))

	got, err := store.Get(ctx, m.ReportID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, m.ReportID, got.ID)
	assert.Equal(t, "email-1", got.EmailID)
	assert.Equal(t, 84, got.QualityScore)
	assert.Equal(t, 75, got.AccessibilityScore)
	assert.Equal(t, "A", got.AccessibilityLevel)
	assert.Equal(t, 8, got.SpamScore)
	assert.False(t, got.Compatibility[validate.ClientAppleMail])

	require.NotNil(t, got.Metrics)
	require.Len(t, got.Metrics.Accessibility.Issues, 1)
	assert.Equal(t, "1.1.1", got.Metrics.Accessibility.Issues[0].WCAGCriterion)
}

func TestReportStoreGetUnknown(t *testing.T) {
	store := NewReportStore(openTestDB(t))

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportStoreRecent(t *testing.T) {
	store := NewReportStore(openTestDB(t))
	ctx := context.Background()

	for i, id := range []string{"r-1", "r-2", "r-3"} {
		m := sampleMetrics()
		m.ReportID = id
		m.QualityScore = 80 + i
		require.NoError(t, store.Save(ctx, "", m))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	for _, r := range recent {
		assert.Empty(t, r.EmailID)
		assert.GreaterOrEqual(t, r.QualityScore, 80)
	}
}
