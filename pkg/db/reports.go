package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/emailforge/emailforge/pkg/validate"
)

// ReportStore persists compliance reports through a go-zero SqlConn so every
// query runs under the circuit breaker.
type ReportStore struct {
	conn sqlx.SqlConn
}

// NewReportStore creates a report store on the given database.
func NewReportStore(d *DB) *ReportStore {
	return &ReportStore{conn: d.SqlConn()}
}

// StoredReport is one persisted compliance report row. The full issue lists
// and the compatibility matrix round-trip through JSON columns.
type StoredReport struct {
	ID                 string
	EmailID            string
	QualityScore       int
	AccessibilityScore int
	AccessibilityLevel string
	SpamScore          int
	Compatibility      map[validate.Client]bool
	Metrics            *validate.Metrics
	CreatedAt          time.Time
}

// Save persists a report. emailID is empty for ad-hoc validation runs.
func (s *ReportStore) Save(ctx context.Context, emailID string, m *validate.Metrics) error {
	compat, err := json.Marshal(m.Compatibility)
	if err != nil {
		return fmt.Errorf("marshal compatibility: %w", err)
	}
	full, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var email sql.NullString
	if emailID != "" {
		email = sql.NullString{String: emailID, Valid: true}
	}

	_, err = s.conn.ExecCtx(ctx, `
		INSERT INTO reports (id, email_id, quality_score, accessibility_score,
		                     accessibility_level, spam_score, compatibility, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ReportID, email, m.QualityScore, m.Accessibility.Score,
		m.Accessibility.Level, m.SpamRisk.Score, string(compat), string(full))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get loads one report by ID. Returns nil when the report does not exist.
func (s *ReportStore) Get(ctx context.Context, id string) (*StoredReport, error) {
	var row struct {
		ID                 string         `db:"id"`
		EmailID            sql.NullString `db:"email_id"`
		QualityScore       int            `db:"quality_score"`
		AccessibilityScore int            `db:"accessibility_score"`
		AccessibilityLevel string         `db:"accessibility_level"`
		SpamScore          int            `db:"spam_score"`
		Compatibility      string         `db:"compatibility"`
		Issues             string         `db:"issues"`
		CreatedAt          time.Time      `db:"created_at"`
	}

	err := s.conn.QueryRowCtx(ctx, &row, `
		SELECT id, email_id, quality_score, accessibility_score,
		       accessibility_level, spam_score, compatibility, issues, created_at
		FROM reports WHERE id = ?
	`, id)
	if err == sqlx.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := &StoredReport{
		ID:                 row.ID,
		EmailID:            row.EmailID.String,
		QualityScore:       row.QualityScore,
		AccessibilityScore: row.AccessibilityScore,
		AccessibilityLevel: row.AccessibilityLevel,
		SpamScore:          row.SpamScore,
		CreatedAt:          row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Compatibility), &out.Compatibility); err != nil {
		return nil, fmt.Errorf("unmarshal compatibility: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Issues), &out.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return out, nil
}

// Recent returns the newest reports, most recent first.
func (s *ReportStore) Recent(ctx context.Context, limit int) ([]*StoredReport, error) {
	var rows []struct {
		ID                 string         `db:"id"`
		EmailID            sql.NullString `db:"email_id"`
		QualityScore       int            `db:"quality_score"`
		AccessibilityScore int            `db:"accessibility_score"`
		AccessibilityLevel string         `db:"accessibility_level"`
		SpamScore          int            `db:"spam_score"`
		CreatedAt          time.Time      `db:"created_at"`
	}

	err := s.conn.QueryRowsCtx(ctx, &rows, `
		SELECT id, email_id, quality_score, accessibility_score,
		       accessibility_level, spam_score, created_at
		FROM reports ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*StoredReport, 0, len(rows))
	for _, row := range rows {
		out = append(out, &StoredReport{
			ID:                 row.ID,
			EmailID:            row.EmailID.String,
			QualityScore:       row.QualityScore,
			AccessibilityScore: row.AccessibilityScore,
			AccessibilityLevel: row.AccessibilityLevel,
			SpamScore:          row.SpamScore,
			CreatedAt:          row.CreatedAt,
		})
	}
	return out, nil
}
