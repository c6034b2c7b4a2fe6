package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/technosupport/ts-crimewatch/internal/ratelimit"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	config  ratelimit.LimitConfig
}

func NewRateLimitMiddleware(l *ratelimit.Limiter, c ratelimit.LimitConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: l, config: c}
}

// IPLimiter enforces a per-IP window. Redis outages fail open: analysis
// submissions are idempotent, so letting traffic through is cheaper than
// refusing it.
func (m *RateLimitMiddleware) IPLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		key := fmt.Sprintf("rl:ip:%s", m.limiter.HashIP(ip))
		decision, err := m.limiter.CheckRateLimit(r.Context(), key, m.config)
		if err != nil {
			log.Printf("[RateLimit] Redis error, failing open: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
