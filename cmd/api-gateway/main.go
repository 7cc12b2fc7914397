package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Greedy academic timetable generation with published timetable storage.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := dto.NewValidator()
	checks := map[string]handler.ReadinessCheck{}

	var timetableRepo *repository.TimetableRepository
	if cfg.Persistence.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database, logr)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		timetableRepo = repository.NewTimetableRepository(db)
		if err := timetableRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		checks["postgres"] = timetableRepo.Ping
		logr.Info("published timetable store connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
	}

	var redisClient *redis.Client
	if cfg.Scheduler.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, generation cache disabled", zap.Error(err))
		} else {
			redisClient = client
			defer redisClient.Close()
			checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "timetable", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.CacheTTL, logr, redisClient != nil)

	runner := scheduler.New(scheduler.Options{
		Seed:               cfg.Scheduler.Seed,
		CheckRoomConflicts: cfg.Scheduler.CheckRoomConflicts,
		UseRealTimeSlots:   cfg.Scheduler.UseRealTimeSlots,
		MaxAttempts:        cfg.Scheduler.MaxAttempts,
	}, logr.Named("scheduler"))

	genCfg := service.TimetableGeneratorConfig{
		Timeout:          cfg.Scheduler.Timeout,
		IncludePublished: cfg.Scheduler.IncludePublished,
	}
	var generator *service.TimetableGeneratorService
	if timetableRepo != nil {
		generator = service.NewTimetableGeneratorService(runner, timetableRepo, cacheSvc, metrics, validate, logr, genCfg)
	} else {
		generator = service.NewTimetableGeneratorService(runner, nil, cacheSvc, metrics, validate, logr, genCfg)
	}

	jobSvc := service.NewTimetableJobService(generator, metrics, validate, logr, service.TimetableJobConfig{
		Workers:   cfg.Scheduler.JobWorkers,
		ResultTTL: cfg.Scheduler.JobTTL,
	})
	jobSvc.Start(ctx)
	defer jobSvc.Stop()
	defer generator.Close()

	deps := routeDeps{
		cfg:       cfg,
		logger:    logr,
		metrics:   metrics,
		tokens:    service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		timetable: handler.NewTimetableHandler(generator, jobSvc),
		probes:    handler.NewMetricsHandler(metrics, checks),
	}
	if timetableRepo != nil {
		publishedSvc := service.NewPublishedTimetableService(timetableRepo, cacheSvc, metrics, validate, logr)
		var links *service.ExportLinkService
		if store, err := storage.NewLocal(cfg.Export.Dir); err != nil {
			logr.Warn("export storage unavailable, download links disabled", zap.Error(err))
		} else {
			links = service.NewExportLinkService(publishedSvc, store, storage.NewSigner(cfg.JWT.Secret, cfg.Export.LinkTTL), logr)
		}
		deps.published = handler.NewPublishedTimetableHandler(publishedSvc, links)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Bool("persistence", timetableRepo != nil),
			zap.Bool("cache", cacheSvc.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
