// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"recruitment-portal/internal/common/aws"
	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/database"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/observability"
	"recruitment-portal/internal/common/storage"
	"recruitment-portal/internal/store"
	"recruitment-portal/internal/synthesis"
	"recruitment-portal/internal/transport/httpapi"

	aa "recruitment-portal/internal/workers/application/approve-application"
	ca "recruitment-portal/internal/workers/application/check-attachments"
	nsc "recruitment-portal/internal/workers/communication/notify-status-change"
	ia "recruitment-portal/internal/workers/data-access/index-application"
	gaf "recruitment-portal/internal/workers/documents/generate-application-form"
	gec "recruitment-portal/internal/workers/documents/generate-exam-card"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.FromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New("worker-manager", log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda), log)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Blob storage and synthesis ---
	blobs, closeBlobs, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		zapLog.Fatal("blob storage init failed", zap.Error(err))
	}
	defer closeBlobs()

	synthOpts, err := synthesis.OptionsFromConfig(cfg.Synthesis)
	if err != nil {
		zapLog.Warn("configured font unavailable, using fallback", zap.Error(err))
		synthOpts = synthesis.Options{
			OutputDir:   cfg.Synthesis.OutputDir,
			SettleDelay: config.GetDuration(cfg.Synthesis.SettleDelay),
		}
	}
	engine, err := synthesis.NewEngine(synthOpts, log)
	if err != nil {
		zapLog.Fatal("synthesis engine init failed", zap.Error(err))
	}

	db := store.New(pg.DB, log)

	// --- Notification channels ---
	notifyDeps := nsc.ServiceDependencies{Store: db, Logger: log}
	if cfg.Notifications.EmailEnabled {
		mailer, err := aws.NewSESClient(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		notifyDeps.Mailer = mailer
	}
	if cfg.Notifications.SMSEnabled {
		sms, err := aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.SMSSenderID)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		notifyDeps.SMS = sms
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, wcfg, handler, obs, log))
	}

	approveCfg := aa.LoadConfig()
	approveCfg.Timeout = workerTimeout(cfg, aa.TaskType, approveCfg.Timeout)
	register(aa.TaskType, aa.NewHandler(approveCfg, db, log))

	attachCfg := ca.LoadConfig()
	attachCfg.Timeout = workerTimeout(cfg, ca.TaskType, attachCfg.Timeout)
	register(ca.TaskType, ca.NewHandler(attachCfg, db, log))

	formCfg := gaf.LoadConfig()
	formCfg.Timeout = workerTimeout(cfg, gaf.TaskType, formCfg.Timeout)
	if cfg.Synthesis.OrganisationName != "" {
		formCfg.Organisation = cfg.Synthesis.OrganisationName
	}
	register(gaf.TaskType, gaf.NewHandler(formCfg, db, blobs, engine, log))

	cardCfg := gec.LoadConfig()
	cardCfg.Timeout = workerTimeout(cfg, gec.TaskType, cardCfg.Timeout)
	if cfg.Synthesis.OrganisationName != "" {
		cardCfg.Organisation = cfg.Synthesis.OrganisationName
	}
	if cfg.Synthesis.VerifyURLBase != "" {
		cardCfg.VerifyURLBase = cfg.Synthesis.VerifyURLBase
	}
	register(gec.TaskType, gec.NewHandler(cardCfg, db, blobs, engine, log))

	notifyCfg := nsc.ConfigFrom(cfg.Notifications, cfg.Notifications.PortalURL)
	notifyCfg.Timeout = workerTimeout(cfg, nsc.TaskType, notifyCfg.Timeout)
	if err := notifyCfg.Validate(); err != nil {
		zapLog.Fatal("invalid notify-status-change config", zap.Error(err))
	}
	register(nsc.TaskType, nsc.NewHandler(notifyCfg, notifyDeps))

	indexCfg := ia.LoadConfig()
	indexCfg.Timeout = workerTimeout(cfg, ia.TaskType, indexCfg.Timeout)
	indexCfg.Index = es.Index
	register(ia.TaskType, ia.NewHandler(indexCfg, db, es.Client, log))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	probes := []httpapi.Check{
		{Name: "postgres", Probe: pg.Ping},
		{Name: "elasticsearch", Probe: es.Ping},
		{Name: "zeebe", Probe: zeebe.HealthCheck},
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           healthRouter(probes),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// workerTimeout prefers the per-worker timeout from config over the package default.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	return fallback
}

func healthRouter(probes []httpapi.Check) http.Handler {
	h := httpapi.New(httpapi.Options{Checks: probes})
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
