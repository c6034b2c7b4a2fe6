package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-crimewatch/internal/data"
	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/queue"
)

type stubPublisher struct {
	published []any
	err       error
}

func (s *stubPublisher) Publish(payload any) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, payload)
	return nil
}

type stubRepository struct {
	records map[string]*data.AnalysisRecord
	recent  []data.AnalysisRecord
	err     error
}

func (s *stubRepository) GetByVideoHash(ctx context.Context, videoHash string) (*data.AnalysisRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[videoHash]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return rec, nil
}

func (s *stubRepository) ListRecent(ctx context.Context, limit int) ([]data.AnalysisRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func testHash(b byte) string {
	return strings.Repeat(fmt.Sprintf("%02x", b), 32)
}

func newTestHandler(pub *stubPublisher, repo *stubRepository) *AnalysisHandler {
	return &AnalysisHandler{
		Reports:       repo,
		Jobs:          pub,
		Dedup:         queue.NewSubmissionDedup(16, time.Minute),
		ConfigVersion: func() string { return "2026.1" },
	}
}

func submitBody(t *testing.T, hash string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(submitRequest{
		VideoHash: hash,
		Input: engine.Input{
			Frames: []engine.FrameInput{{FrameIndex: 0}},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSubmitQueuesJob(t *testing.T) {
	pub := &stubPublisher{}
	h := newTestHandler(pub, &stubRepository{})

	rr := httptest.NewRecorder()
	h.Submit(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", submitBody(t, testHash(0xab))))

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "2026.1", resp.ConfigVersion)

	require.Len(t, pub.published, 1)
	job, ok := pub.published[0].(queue.AnalysisJob)
	require.True(t, ok)
	assert.Equal(t, testHash(0xab), job.VideoHash)
	assert.Equal(t, resp.JobID, job.JobID)
}

func TestSubmitDeduplicatesResubmission(t *testing.T) {
	pub := &stubPublisher{}
	h := newTestHandler(pub, &stubRepository{})

	first := httptest.NewRecorder()
	h.Submit(first, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", submitBody(t, testHash(0xcd))))
	require.Equal(t, http.StatusAccepted, first.Code)

	second := httptest.NewRecorder()
	h.Submit(second, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", submitBody(t, testHash(0xcd))))
	require.Equal(t, http.StatusAccepted, second.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp.Status)
	assert.Empty(t, resp.JobID)
	assert.Len(t, pub.published, 1)
}

func TestSubmitRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"video_hash":`},
		{"bad hash", `{"video_hash":"not-a-hash","input":{"frames":[{"index":0}]}}`},
		{"empty input", fmt.Sprintf(`{"video_hash":"%s","input":{}}`, testHash(0x01))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubPublisher{}, &stubRepository{})
			rr := httptest.NewRecorder()
			h.Submit(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSubmitQueueUnavailable(t *testing.T) {
	pub := &stubPublisher{err: fmt.Errorf("nats down")}
	h := newTestHandler(pub, &stubRepository{})

	rr := httptest.NewRecorder()
	h.Submit(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analyses", submitBody(t, testHash(0xee))))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func getRequest(hash string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+hash, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("hash", hash)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetReturnsStoredReport(t *testing.T) {
	hash := testHash(0x11)
	repo := &stubRepository{records: map[string]*data.AnalysisRecord{
		hash: {
			VideoHash:       hash,
			OverallSeverity: engine.SeverityHigh,
			CrimeDetected:   true,
			ConfigVersion:   "2026.1",
			Report:          &engine.CrimeReport{OverallSeverity: engine.SeverityHigh},
			Narrative:       "A weapon was observed near a person.",
			CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}}
	h := newTestHandler(&stubPublisher{}, repo)

	rr := httptest.NewRecorder()
	h.Get(rr, getRequest(hash))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp reportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, hash, resp.VideoHash)
	assert.Equal(t, engine.SeverityHigh, resp.OverallSeverity)
	assert.True(t, resp.CrimeDetected)
	assert.Equal(t, "A weapon was observed near a person.", resp.Narrative)
	require.NotNil(t, resp.Report)
}

func TestGetUnknownHash(t *testing.T) {
	h := newTestHandler(&stubPublisher{}, &stubRepository{})

	rr := httptest.NewRecorder()
	h.Get(rr, getRequest(testHash(0x22)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetRejectsInvalidHash(t *testing.T) {
	h := newTestHandler(&stubPublisher{}, &stubRepository{})

	rr := httptest.NewRecorder()
	h.Get(rr, getRequest("zzzz"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListReturnsSummaries(t *testing.T) {
	repo := &stubRepository{recent: []data.AnalysisRecord{
		{VideoHash: testHash(0x31), OverallSeverity: engine.SeverityCritical, CrimeDetected: true, ConfigVersion: "2026.1"},
		{VideoHash: testHash(0x32), OverallSeverity: engine.SeveritySafe, ConfigVersion: "2026.1"},
	}}
	h := newTestHandler(&stubPublisher{}, repo)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var items []listItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, engine.SeverityCritical, items[0].OverallSeverity)
	assert.True(t, items[0].CrimeDetected)
}

func TestListHonorsLimit(t *testing.T) {
	repo := &stubRepository{recent: []data.AnalysisRecord{
		{VideoHash: testHash(0x41)},
		{VideoHash: testHash(0x42)},
		{VideoHash: testHash(0x43)},
	}}
	h := newTestHandler(&stubPublisher{}, repo)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=2", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var items []listItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
