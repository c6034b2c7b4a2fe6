// Package queue moves analysis jobs between the API and the workers over
// NATS, and announces finished reports for downstream consumers.
package queue

import (
	"time"

	"github.com/technosupport/ts-crimewatch/internal/engine"
)

const (
	SubjectJobs    = "crimewatch.jobs"
	SubjectReports = "crimewatch.reports"
	WorkerGroup    = "crimewatch-workers"
)

// AnalysisJob is the envelope the API publishes for each accepted
// submission. Input is the full perception payload; workers run it
// through the engine unchanged.
type AnalysisJob struct {
	JobID       string       `json:"job_id"`
	VideoHash   string       `json:"video_hash"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Input       engine.Input `json:"input"`
}

// ReportAnnouncement is published once a job's report is persisted.
// It carries the verdict, not the full report; consumers fetch the rest
// by hash.
type ReportAnnouncement struct {
	JobID           string          `json:"job_id"`
	VideoHash       string          `json:"video_hash"`
	OverallSeverity engine.Severity `json:"overall_severity"`
	CrimeDetected   bool            `json:"crime_detected"`
	CompletedAt     time.Time       `json:"completed_at"`
}
