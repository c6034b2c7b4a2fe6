package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/technosupport/ts-crimewatch/internal/middleware"
)

// NewRouter assembles the service routes. Health and metrics are open;
// the analysis surface requires a service token.
func NewRouter(h *AnalysisHandler, auth *middleware.JWTAuth, rl *middleware.RateLimitMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	if rl != nil {
		r.Use(rl.IPLimiter)
	}

	r.Get("/healthz", Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/analyses", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/", h.Submit)
		r.Get("/", h.List)
		r.Get("/{hash}", h.Get)
	})

	return r
}
