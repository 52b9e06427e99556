package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tasjeel/internal/jwttoken"
	"tasjeel/internal/migrate"
	"tasjeel/internal/platform/config"
	"tasjeel/internal/platform/httpserver"
	"tasjeel/internal/platform/logger"
	"tasjeel/internal/platform/middleware"
	"tasjeel/internal/platform/postgres"
	platformredis "tasjeel/internal/platform/redis"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/handler"
	registrymetrics "tasjeel/internal/registry/metrics"
	"tasjeel/internal/registry/models"
	"tasjeel/internal/registry/service"
	"tasjeel/internal/registry/store"
)

// main wires dependencies and runs the HTTP server plus the audit relay under
// one lifecycle. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runner := migrate.NewRunner(db, cfg.MigrationsDir, cfg.SeedsDir)
	if err := runner.Up(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Seed(ctx); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	registryStore := store.NewPostgres(db)

	var locker guard.Locker
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = guard.NewRedisLocker(redisClient.Client)
	} else {
		// Single-instance deployments can run on process-local locks.
		log.Warn("redis not configured, identity locks are process-local")
		locker = guard.NewInMemoryLocker()
	}

	guardCfg := guard.DefaultConfig()
	if len(cfg.RestrictedPropertyTypes) > 0 {
		guardCfg.RestrictedTypeIDs[models.DomainProperty] = cfg.RestrictedPropertyTypes
	}
	if len(cfg.RestrictedVehicleTypes) > 0 {
		guardCfg.RestrictedTypeIDs[models.DomainVehicle] = cfg.RestrictedVehicleTypes
	}
	registryGuard, err := guard.New(registryStore, locker,
		guard.WithConfig(guardCfg),
		guard.WithLogger(log),
	)
	if err != nil {
		log.Error("guard construction failed", "error", err)
		os.Exit(1)
	}

	auditSink := audit.NewPostgresSink(db)
	auditor, err := audit.New(auditSink, audit.WithLogger(log))
	if err != nil {
		log.Error("auditor construction failed", "error", err)
		os.Exit(1)
	}

	m := registrymetrics.New()
	registryService, err := service.New(registryStore, registryGuard, auditor,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditReader(auditSink),
	)
	if err != nil {
		log.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	registryHandler := handler.New(registryService, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.ClientMetadata)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		registryHandler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting tasjeel server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		relay, err := audit.NewRelay(db, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("audit relay construction failed", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		g.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Warn("kafka not configured, audit entries stay in the outbox")
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
