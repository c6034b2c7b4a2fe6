package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// statusRecorder captures the response status for the completion log.
// Write without an explicit WriteHeader counts as 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an id and logs one completion
// line. Callers are upstream services, so an X-Request-ID they supply
// is kept to correlate logs across the pipeline; otherwise one is
// minted here.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", reqID)

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)

		log.Printf("[REQ:%s] %s %s %d in %v", reqID, r.Method, r.URL.Path, sr.status, time.Since(start))
	})
}
