package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodflow-pickup/internal/config"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"
	"foodflow-pickup/internal/infra/adapters/foodflow"
	pg "foodflow-pickup/internal/infra/db/postgres"
	"foodflow-pickup/internal/infra/i18n"
	"foodflow-pickup/internal/infra/logging"
	"foodflow-pickup/internal/infra/metrics"
	red "foodflow-pickup/internal/infra/redis"
	"foodflow-pickup/internal/infra/sched"
	"foodflow-pickup/internal/infra/web"
	"foodflow-pickup/internal/infra/worker"
	"foodflow-pickup/internal/usecase"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.SetBuildInfo(version, commit)

	loc, err := cfg.Tolerance.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("tolerance timezone")
	}

	// ---- FoodFlow backend ----
	ffClient, err := foodflow.NewClient(cfg.FoodFlow.BaseURL, cfg.FoodFlow.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("foodflow client")
	}

	// ---- Postgres (optional unless tolerance.source=postgres) ----
	var (
		pool        *pgxpool.Pool
		attemptRepo repository.PickupAttemptRepository
		policyRepo  repository.TolerancePolicyRepository
		txManager   repository.TransactionManager
	)
	if cfg.Database.URL != "" {
		pool, err = pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		txManager = pg.NewTxManager(pool)

		writers := worker.NewPool(cfg.Database.AttemptWorkers, logger)
		writers.Start(context.Background())
		defer writers.Stop()
		attemptRepo = worker.NewAttemptWriter(pg.NewPickupAttemptRepo(pool), writers, 5*time.Second)
	}

	var provider adapter.TolerancePolicyProvider = ffClient
	if cfg.Tolerance.Source == config.ToleranceSourcePostgres {
		repo := pg.NewTolerancePolicyRepo(pool)
		policyRepo = repo
		provider = repo
	}

	// ---- Redis (optional) ----
	var invalidator usecase.CacheInvalidator
	var limiter *red.RateLimiter
	var locker *red.RedisLocker
	if cfg.Redis.Enabled() {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cache := red.NewToleranceCache(redisClient, provider, cfg.Tolerance.CacheTTL, logger)
		provider = cache
		invalidator = cache
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
	}

	// ---- Use cases ----
	fallback, err := model.NewTolerancePolicy(*cfg.Tolerance.DefaultEarlyMinutes, *cfg.Tolerance.DefaultLateMinutes)
	if err != nil {
		logger.Fatal().Err(err).Msg("default tolerance")
	}
	completer := foodflow.NewInstrumentedCompleter(ffClient)
	confirmUC := usecase.NewConfirmationUseCase(provider, completer, attemptRepo, fallback, loc, time.Now, logger)
	toleranceUC := usecase.NewToleranceUseCase(provider, policyRepo, txManager, invalidator, logger)

	// ---- HTTP ----
	locales, err := i18n.NewBundle(i18n.LocalesFS, cfg.I18n.DefaultLang, "en", "fr")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	sessions := web.NewSessionRegistry()
	auth := web.NewAuthManager(cfg.Security.JWTSecret).WithLogger(logger, cfg.Runtime.Dev)
	srv := web.NewServer(confirmUC, toleranceUC, sessions, auth,
		locales, cfg.Confirmation, cfg.HTTP.RequestTimeout, logger).
		WithMetrics(promhttp.Handler())
	if limiter != nil {
		srv.WithRedis(limiter, locker)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("tolerance_source", cfg.Tolerance.Source).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Idle session sweeper ----
	sweeper := sched.NewSessionSweeper(cfg.Confirmation.SweepInterval, cfg.Confirmation.SessionTTL, sessions, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
