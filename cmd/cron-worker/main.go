package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/fieldops-logistics/internal/app"
	"github.com/angelmondragon/fieldops-logistics/internal/cron"
	"github.com/angelmondragon/fieldops-logistics/internal/ops"
	"github.com/angelmondragon/fieldops-logistics/pkg/config"
	"github.com/angelmondragon/fieldops-logistics/pkg/db"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/migrate"
	"github.com/angelmondragon/fieldops-logistics/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured; using in-process cron lock and no ledger claims")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := app.Build(app.Params{
		Config:     cfg,
		DB:         dbClient.DB(),
		Redis:      redisClient,
		Logger:     logg,
		Registerer: registry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewAllocationReconcileJob(cron.AllocationReconcileJobParams{
		Logger:     logg,
		Reconciler: services.Allocations,
		Actor:      cfg.Cron.ActorSource,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create allocation reconcile job", err)
		os.Exit(1)
	}
	driftJob, err := cron.NewMirrorDriftJob(cron.MirrorDriftJobParams{
		Logger:   logg,
		Reporter: services.Inventory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create drift job", err)
		os.Exit(1)
	}
	jobs, err := cron.NewRegistry(reconcileJob, driftJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	var lock cron.Lock = &cron.LocalLock{}
	if redisClient != nil {
		lock, err = cron.NewRedisLock(redisClient, cron.LockName, cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(registry),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	deps := map[string]ops.Pinger{"database": dbClient}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	router, err := ops.NewRouter(ops.RouterParams{
		Env:          cfg.App.Env,
		Logger:       logg,
		Gatherer:     registry,
		Dependencies: deps,
		Drift:        services.Inventory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ops router", err)
		os.Exit(1)
	}
	server := &http.Server{
		Addr:              cfg.Cron.OpsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	go func() {
		logg.Info(logg.WithField(ctx, "addr", cfg.Cron.OpsAddr), "ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server failed", err)
			stop()
		}
	}()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "ops server shutdown failed", err)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
