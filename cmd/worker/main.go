package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/ts-crimewatch/internal/cache"
	"github.com/technosupport/ts-crimewatch/internal/config"
	"github.com/technosupport/ts-crimewatch/internal/data"
	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/metrics"
	"github.com/technosupport/ts-crimewatch/internal/narrative"
	"github.com/technosupport/ts-crimewatch/internal/queue"
)

const announceRetries = 3

// worker holds the per-process collaborators for job handling. The
// engine is swapped under the mutex when the threshold config reloads.
type worker struct {
	mu        sync.RWMutex
	eng       *engine.Engine
	reports   data.ReportModel
	cache     *cache.ReportCache
	narrator  *narrative.Service
	announcer *queue.Publisher
}

func main() {
	cfg, err := config.LoadService(os.Getenv("CRIMEWATCH_CONFIG"))
	if err != nil {
		log.Fatalf("[Worker] Config load error: %v", err)
	}

	engCfg, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		log.Fatalf("[Worker] Engine config load error: %v", err)
	}
	eng, err := engine.NewEngine(engCfg)
	if err != nil {
		log.Fatalf("[Worker] Engine init error: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Worker] DB open error: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("[Worker] NATS connect error: %v", err)
	}
	defer nc.Close()

	var narrator *narrative.Service
	if cfg.GeminiAPIKey != "" {
		gem, err := narrative.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("[Worker] Gemini init failed, narratives fall back to templates: %v", err)
			narrator = narrative.NewService(nil)
		} else {
			narrator = narrative.NewService(gem)
		}
	} else {
		log.Println("[Worker] No Gemini API key, narratives use templates")
		narrator = narrative.NewService(nil)
	}

	w := &worker{
		eng:       eng,
		reports:   data.ReportModel{DB: db},
		cache:     cache.NewReportCache(rdb, cfg.CacheTTL),
		narrator:  narrator,
		announcer: queue.NewPublisher(nc, queue.SubjectReports, announceRetries),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go config.WatchEngineConfig(ctx, cfg.EngineConfigPath, func(next engine.Config) {
		rebuilt, err := engine.NewEngine(next)
		if err != nil {
			log.Printf("[Worker] Rejecting reloaded config: %v", err)
			return
		}
		w.mu.Lock()
		w.eng = rebuilt
		w.mu.Unlock()
		log.Printf("[Worker] Engine config reloaded, version %s", next.Version)
	})

	consumer := queue.NewConsumer(nc)
	if err := consumer.Start(ctx, w.handle); err != nil {
		log.Fatalf("[Worker] Subscribe error: %v", err)
	}
	log.Printf("[Worker] Consuming %s in group %s", queue.SubjectJobs, queue.WorkerGroup)

	<-ctx.Done()
	log.Println("[Worker] Shutting down")
	consumer.Stop()
}

func (w *worker) engine() *engine.Engine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.eng
}

func (w *worker) handle(ctx context.Context, job queue.AnalysisJob) error {
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	eng := w.engine()

	// A stored verdict from the same config version makes the job a
	// replay; the upsert path is only for changed thresholds.
	if existing, err := w.reports.GetByVideoHash(ctx, job.VideoHash); err == nil &&
		existing.ConfigVersion == eng.Config().Version {
		log.Printf("[Worker] Job %s already analyzed under version %s, skipping", job.JobID, existing.ConfigVersion)
		return nil
	} else if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return err
	}

	start := time.Now()
	report, err := eng.Analyze(job.Input)
	if err != nil {
		log.Printf("[Worker] Job %s rejected: %v", job.JobID, err)
		return nil
	}
	metrics.RecordAnalysis(report.OverallSeverity.String(), float64(time.Since(start).Milliseconds()))
	for _, ev := range report.Events {
		metrics.RecordEvents(string(ev.Type), 1)
	}

	rec := &data.AnalysisRecord{
		ID:              uuid.New().String(),
		JobID:           job.JobID,
		VideoHash:       job.VideoHash,
		OverallSeverity: report.OverallSeverity,
		CrimeDetected:   report.CrimeDetected,
		ConfigVersion:   report.ConfigVersion,
		Report:          report,
		CreatedAt:       time.Now().UTC(),
	}
	if err := w.reports.Insert(ctx, rec); err != nil {
		return err
	}

	rec.Narrative = w.narrator.Narrate(ctx, report)
	if err := w.reports.SetNarrative(ctx, job.VideoHash, rec.Narrative); err != nil {
		log.Printf("[Worker] Narrative save failed for %s: %v", job.VideoHash, err)
	}

	if err := w.cache.Set(ctx, job.VideoHash, rec); err != nil {
		log.Printf("[Worker] Cache write failed for %s: %v", job.VideoHash, err)
	}

	return w.announcer.Publish(queue.ReportAnnouncement{
		JobID:           job.JobID,
		VideoHash:       job.VideoHash,
		OverallSeverity: report.OverallSeverity,
		CrimeDetected:   report.CrimeDetected,
		CompletedAt:     time.Now().UTC(),
	})
}
