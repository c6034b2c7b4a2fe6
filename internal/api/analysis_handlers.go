// Package api exposes the analysis ingestion and query HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/technosupport/ts-crimewatch/internal/cache"
	"github.com/technosupport/ts-crimewatch/internal/data"
	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/metrics"
	"github.com/technosupport/ts-crimewatch/internal/queue"
)

// videoHashPattern accepts hex SHA-256 digests, the hash the upload
// pipeline computes for each video.
var videoHashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// JobPublisher is the queue seam; tests swap in a recorder.
type JobPublisher interface {
	Publish(payload any) error
}

type AnalysisHandler struct {
	Reports ReportRepository
	Cache   *cache.ReportCache
	Jobs    JobPublisher
	Dedup   *queue.SubmissionDedup
	// ConfigVersion reports the active engine config for dedup keys and
	// submission receipts.
	ConfigVersion func() string
}

// ReportRepository is the subset of data.ReportModel the handlers need.
type ReportRepository interface {
	GetByVideoHash(ctx context.Context, videoHash string) (*data.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]data.AnalysisRecord, error)
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type submitRequest struct {
	VideoHash string       `json:"video_hash"`
	Input     engine.Input `json:"input"`
}

type submitResponse struct {
	JobID         string `json:"job_id"`
	VideoHash     string `json:"video_hash"`
	Status        string `json:"status"`
	ConfigVersion string `json:"config_version"`
}

// Submit handles POST /api/v1/analyses: validates the perception payload
// envelope and enqueues an analysis job. Duplicate submissions within
// the dedup window are acknowledged without re-enqueueing.
func (h *AnalysisHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !videoHashPattern.MatchString(req.VideoHash) {
		respondError(w, http.StatusBadRequest, "video_hash must be a hex sha256 digest")
		return
	}
	if len(req.Input.Frames) == 0 && len(req.Input.Clips) == 0 && len(req.Input.Motion) == 0 {
		respondError(w, http.StatusBadRequest, "input has no frames, clips, or motion samples")
		return
	}

	version := h.ConfigVersion()
	resp := submitResponse{
		VideoHash:     req.VideoHash,
		ConfigVersion: version,
	}

	if h.Dedup != nil && h.Dedup.IsDuplicate(queue.BuildDedupKey(req.VideoHash, version)) {
		resp.Status = "duplicate"
		respondJSON(w, http.StatusAccepted, resp)
		return
	}

	job := queue.AnalysisJob{
		JobID:       uuid.New().String(),
		VideoHash:   req.VideoHash,
		SubmittedAt: time.Now().UTC(),
		Input:       req.Input,
	}
	if err := h.Jobs.Publish(job); err != nil {
		log.Printf("[API] Failed to enqueue job for %s: %v", req.VideoHash, err)
		respondError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	resp.JobID = job.JobID
	resp.Status = "queued"
	respondJSON(w, http.StatusAccepted, resp)
}

type reportResponse struct {
	VideoHash       string              `json:"video_hash"`
	OverallSeverity engine.Severity     `json:"overall_severity"`
	CrimeDetected   bool                `json:"crime_detected"`
	ConfigVersion   string              `json:"config_version"`
	Report          *engine.CrimeReport `json:"report"`
	Narrative       string              `json:"narrative,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Get handles GET /api/v1/analyses/{hash}: cache first, then Postgres.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if !videoHashPattern.MatchString(hash) {
		respondError(w, http.StatusBadRequest, "invalid video hash")
		return
	}

	if h.Cache != nil {
		var cached data.AnalysisRecord
		if err := h.Cache.Get(r.Context(), hash, &cached); err == nil {
			metrics.RecordCacheLookup(true)
			respondJSON(w, http.StatusOK, recordToResponse(&cached))
			return
		}
		metrics.RecordCacheLookup(false)
	}

	rec, err := h.Reports.GetByVideoHash(r.Context(), hash)
	if errors.Is(err, data.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		log.Printf("[API] Report lookup failed for %s: %v", hash, err)
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, recordToResponse(rec))
}

type listItem struct {
	VideoHash       string          `json:"video_hash"`
	OverallSeverity engine.Severity `json:"overall_severity"`
	CrimeDetected   bool            `json:"crime_detected"`
	ConfigVersion   string          `json:"config_version"`
	CreatedAt       time.Time       `json:"created_at"`
}

// List handles GET /api/v1/analyses: newest verdicts first, no report
// payloads.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	recs, err := h.Reports.ListRecent(r.Context(), limit)
	if err != nil {
		log.Printf("[API] Report listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	items := make([]listItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, listItem{
			VideoHash:       rec.VideoHash,
			OverallSeverity: rec.OverallSeverity,
			CrimeDetected:   rec.CrimeDetected,
			ConfigVersion:   rec.ConfigVersion,
			CreatedAt:       rec.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, items)
}

func recordToResponse(rec *data.AnalysisRecord) reportResponse {
	return reportResponse{
		VideoHash:       rec.VideoHash,
		OverallSeverity: rec.OverallSeverity,
		CrimeDetected:   rec.CrimeDetected,
		ConfigVersion:   rec.ConfigVersion,
		Report:          rec.Report,
		Narrative:       rec.Narrative,
		CreatedAt:       rec.CreatedAt,
	}
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
