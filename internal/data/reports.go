// Package data is the Postgres persistence layer for analysis reports.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/technosupport/ts-crimewatch/internal/engine"
)

var ErrRecordNotFound = errors.New("record not found")

// DBTX is a common interface for *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// AnalysisRecord is one persisted analysis run. Report is the full engine
// output; Narrative is the optional generated prose.
type AnalysisRecord struct {
	ID              string              `json:"id"`
	JobID           string              `json:"job_id"`
	VideoHash       string              `json:"video_hash"`
	OverallSeverity engine.Severity     `json:"overall_severity"`
	CrimeDetected   bool                `json:"crime_detected"`
	ConfigVersion   string              `json:"config_version"`
	Report          *engine.CrimeReport `json:"report,omitempty"`
	Narrative       string              `json:"narrative,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type ReportModel struct {
	DB DBTX
}

// Insert upserts a record by video hash: re-analyzing the same video
// (e.g. after a config change) replaces the stored verdict.
func (m ReportModel) Insert(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	reportJSON, err := json.Marshal(rec.Report)
	if err != nil {
		return err
	}
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO analysis_reports (id, job_id, video_hash, overall_severity, crime_detected, config_version, report, narrative, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (video_hash) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			overall_severity = EXCLUDED.overall_severity,
			crime_detected = EXCLUDED.crime_detected,
			config_version = EXCLUDED.config_version,
			report = EXCLUDED.report,
			narrative = EXCLUDED.narrative,
			created_at = EXCLUDED.created_at`

	_, err = m.DB.ExecContext(ctx, query,
		rec.ID, rec.JobID, rec.VideoHash, rec.OverallSeverity.String(), rec.CrimeDetected,
		rec.ConfigVersion, reportJSON, rec.Narrative, rec.CreatedAt,
	)
	return err
}

func (m ReportModel) GetByVideoHash(ctx context.Context, videoHash string) (*AnalysisRecord, error) {
	query := `
		SELECT id, job_id, video_hash, overall_severity, crime_detected, config_version, report, narrative, created_at
		FROM analysis_reports
		WHERE video_hash = $1`

	var rec AnalysisRecord
	var severity string
	var reportJSON []byte

	err := m.DB.QueryRowContext(ctx, query, videoHash).Scan(
		&rec.ID, &rec.JobID, &rec.VideoHash, &severity, &rec.CrimeDetected,
		&rec.ConfigVersion, &reportJSON, &rec.Narrative, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.OverallSeverity, err = engine.ParseSeverity(severity)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reportJSON, &rec.Report); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns the newest records first, without the full report
// payload (listing endpoints only need the verdict).
func (m ReportModel) ListRecent(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, job_id, video_hash, overall_severity, crime_detected, config_version, created_at
		FROM analysis_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := m.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var severity string
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.VideoHash, &severity,
			&rec.CrimeDetected, &rec.ConfigVersion, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if rec.OverallSeverity, err = engine.ParseSeverity(severity); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetNarrative attaches generated prose to an existing record.
func (m ReportModel) SetNarrative(ctx context.Context, videoHash, narrative string) error {
	query := `UPDATE analysis_reports SET narrative = $1 WHERE video_hash = $2`
	res, err := m.DB.ExecContext(ctx, query, narrative, videoHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
