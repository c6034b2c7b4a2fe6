package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-crimewatch/internal/engine"
)

func sampleReport() *engine.CrimeReport {
	return &engine.CrimeReport{
		OverallSeverity: engine.SeverityHigh,
		CrimeDetected:   true,
		Recommendation:  "Contact law enforcement.",
		ConfigVersion:   "2026.1",
	}
}

func TestReportModel_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := ReportModel{DB: db}
	rec := &AnalysisRecord{
		JobID:           "job-1",
		VideoHash:       "abc123",
		OverallSeverity: engine.SeverityHigh,
		CrimeDetected:   true,
		ConfigVersion:   "2026.1",
		Report:          sampleReport(),
	}

	mock.ExpectExec("INSERT INTO analysis_reports").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, m.Insert(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportModel_GetByVideoHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := ReportModel{DB: db}

	rows := sqlmock.NewRows([]string{
		"id", "job_id", "video_hash", "overall_severity", "crime_detected",
		"config_version", "report", "narrative", "created_at",
	}).AddRow(
		"rec-1", "job-1", "abc123", "high", true,
		"2026.1", []byte(`{"overall_severity":"high","crime_detected":true}`), "narrative text", time.Now(),
	)
	mock.ExpectQuery("SELECT (.+) FROM analysis_reports").
		WithArgs("abc123").
		WillReturnRows(rows)

	rec, err := m.GetByVideoHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, engine.SeverityHigh, rec.OverallSeverity)
	assert.True(t, rec.CrimeDetected)
	assert.Equal(t, "narrative text", rec.Narrative)
	require.NotNil(t, rec.Report)
	assert.Equal(t, engine.SeverityHigh, rec.Report.OverallSeverity)
}

func TestReportModel_GetByVideoHash_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := ReportModel{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM analysis_reports").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = m.GetByVideoHash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReportModel_ListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := ReportModel{DB: db}

	rows := sqlmock.NewRows([]string{
		"id", "job_id", "video_hash", "overall_severity", "crime_detected", "config_version", "created_at",
	}).
		AddRow("rec-2", "job-2", "def456", "critical", true, "2026.1", time.Now()).
		AddRow("rec-1", "job-1", "abc123", "safe", false, "2026.1", time.Now().Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM analysis_reports").
		WithArgs(10).
		WillReturnRows(rows)

	out, err := m.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, engine.SeverityCritical, out[0].OverallSeverity)
	assert.False(t, out[1].CrimeDetected)
}

func TestReportModel_SetNarrative_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := ReportModel{DB: db}
	mock.ExpectExec("UPDATE analysis_reports").
		WithArgs("text", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = m.SetNarrative(context.Background(), "missing", "text")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
