package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/ts-crimewatch/internal/api"
	"github.com/technosupport/ts-crimewatch/internal/cache"
	"github.com/technosupport/ts-crimewatch/internal/config"
	"github.com/technosupport/ts-crimewatch/internal/data"
	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/middleware"
	"github.com/technosupport/ts-crimewatch/internal/queue"
	"github.com/technosupport/ts-crimewatch/internal/ratelimit"
	"github.com/technosupport/ts-crimewatch/internal/tokens"
)

const publishRetries = 3

func main() {
	cfg, err := config.LoadService(os.Getenv("CRIMEWATCH_CONFIG"))
	if err != nil {
		log.Fatalf("[Server] Config load error: %v", err)
	}

	engCfg, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		log.Fatalf("[Server] Engine config load error: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Server] DB open error: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("[Server] NATS connect error: %v", err)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The active config version feeds dedup keys and submission receipts;
	// hot reload keeps it aligned with the worker fleet.
	var mu sync.RWMutex
	version := engCfg.Version
	go config.WatchEngineConfig(ctx, cfg.EngineConfigPath, func(next engine.Config) {
		mu.Lock()
		version = next.Version
		mu.Unlock()
	})

	handler := &api.AnalysisHandler{
		Reports: data.ReportModel{DB: db},
		Cache:   cache.NewReportCache(rdb, cfg.CacheTTL),
		Jobs:    queue.NewPublisher(nc, queue.SubjectJobs, publishRetries),
		Dedup:   queue.NewSubmissionDedup(4096, cfg.DedupWindow),
		ConfigVersion: func() string {
			mu.RLock()
			defer mu.RUnlock()
			return version
		},
	}

	tokenMgr := tokens.NewManager(cfg.JWTSigningKey)
	rl := middleware.NewRateLimitMiddleware(
		ratelimit.NewLimiter(rdb, "crimewatch-api"),
		ratelimit.LimitConfig{Rate: 100, Window: time.Second},
	)
	router := api.NewRouter(handler, middleware.NewJWTAuth(tokenMgr), rl)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[Server] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}
