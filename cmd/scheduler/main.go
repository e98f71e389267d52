package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/config"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/dispatch"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/email"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/health"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/httpapi"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/httpapi/handler"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/dist-job-scheduler/internal/log"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/metrics"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/policy"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/priceoracle"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/runner"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	dtwRepo := postgres.NewDTWRepository(pool)
	cronTriggerRepo := postgres.NewCronTriggerRepository(pool)

	oracle := priceoracle.NewHTTPOracle(cfg.PriceOracleURL, time.Duration(cfg.PriceOracleTimeoutSec)*time.Second, logger)

	alertSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	rpcDispatcher := dispatch.NewRPCDispatcher(cfg.WorkflowEngineEndpoint, logger)
	alertingDispatcher := dispatch.NewAlertingDispatcher(rpcDispatcher, alertSender, cfg.OperatorAlertTo, logger)

	mode, err := policy.ResolveMode(cfg.DTWSchedulerMode, cfg.DTWSchedulerLastMinute)
	if err != nil {
		log.Fatalf("dtw scheduler mode: %v", err)
	}
	placementPolicy := buildPolicy(mode, dtwRepo, cronTriggerRepo, alertingDispatcher, oracle, logger)

	r := &runner.Runner{
		CronTriggers: cronTriggerRepo,
		DTWs:         dtwRepo,
		Dispatcher:   alertingDispatcher,
		Policy:       placementPolicy,
		Logger:       logger,
		Interval:     time.Duration(cfg.PollIntervalSec) * time.Second,
	}
	go r.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	opsRouter := httpapi.NewRouter(
		logger,
		handler.NewDTWHandler(dtwRepo),
		handler.NewCronTriggerHandler(cronTriggerRepo),
		handler.NewHealthHandler(checker),
		cfg.ClerkJWKSURL,
		[]byte(cfg.OpsJWTSecret),
	)
	opsSrv := &http.Server{Addr: ":8080", Handler: opsRouter}
	go func() {
		logger.Info("ops surface started", "addr", opsSrv.Addr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops surface", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops surface shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
}

func buildPolicy(mode policy.Mode, dtwRepo *postgres.DTWRepository, cronRepo *postgres.CronTriggerRepository, dispatcher dispatch.Dispatcher, oracle priceoracle.Oracle, logger *slog.Logger) policy.PlacementPolicy {
	switch mode {
	case policy.ModeLastMinute:
		return &policy.LastMinute{DTWs: dtwRepo, CronTriggers: cronRepo, Logger: logger}
	case policy.ModeEnergyAware:
		return &policy.EnergyAware{DTWs: dtwRepo, CronTriggers: cronRepo, Dispatcher: dispatcher, Oracle: oracle, Logger: logger}
	default:
		return &policy.Immediate{DTWs: dtwRepo, Dispatcher: dispatcher, Logger: logger}
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
