// cmd/portal/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/database"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/observability"
	"recruitment-portal/internal/common/storage"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/store"
	"recruitment-portal/internal/transport/httpapi"
	"recruitment-portal/internal/wizard"
)

const sessionSweepInterval = time.Minute

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.FromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("portal", log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		// Cooldown and the position cache degrade without Redis; consent does not.
		zapLog.Warn("redis unreachable at startup", zap.Error(err))
	}

	blobs, closeBlobs, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		zapLog.Fatal("blob storage init failed", zap.Error(err))
	}
	defer closeBlobs()

	db := store.New(pg.DB, log)
	positions := store.NewCachedPositions(db, rdb.Client, config.GetDuration(cfg.Wizard.PositionCacheTTL), log)

	ingestOpts := ingest.OptionsFromConfig(cfg.Ingestion)
	pipeline := ingest.NewPipeline(ingestOpts, ingest.NewImagingCompressor(ingestOpts.CompressionOptions()), log)

	sessionTTL := config.GetDuration(cfg.Wizard.SessionTTL)
	deps := wizard.Deps{
		Positions:      positions,
		Repository:     db,
		Blobs:          blobs,
		Ingester:       pipeline,
		Cooldown:       wizard.NewRedisCooldown(rdb.Client),
		CooldownWindow: config.GetDuration(cfg.Wizard.Cooldown),
		Logger:         log,
	}

	checks := []httpapi.Check{
		{Name: "postgres", Probe: pg.Ping},
		{Name: "redis", Probe: rdb.Ping},
	}

	if cfg.Camunda.BrokerAddress != "" {
		zeebe, err := camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Warn("zeebe unavailable, submissions will not start a process", zap.Error(err))
		} else {
			defer zeebe.Close()
			deps.Workflow = zeebe
			checks = append(checks, httpapi.Check{Name: "zeebe", Probe: zeebe.HealthCheck})
		}
	}

	sessions := wizard.NewSessions(sessionTTL)
	api := httpapi.New(httpapi.Options{
		Consents:  wizard.NewRedisConsentStore(rdb.Client, sessionTTL),
		Sessions:  sessions,
		Wizard:    deps,
		Status:    db,
		Positions: positions,
		Checks:    checks,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("portal listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, sessionSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, draining requests...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("portal stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Portal stopped gracefully")
}
