package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/dealscout/dealscout-backend/internal/adapter/repository/postgres"
	"github.com/dealscout/dealscout-backend/internal/adapter/rest"
	"github.com/dealscout/dealscout-backend/internal/adapter/source"
	"github.com/dealscout/dealscout-backend/internal/config"
	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/metrics"
	"github.com/dealscout/dealscout-backend/internal/usecase/acquisition"
	"github.com/dealscout/dealscout-backend/internal/usecase/analyzer"
	"github.com/dealscout/dealscout-backend/internal/usecase/scoring"
	"github.com/dealscout/dealscout-backend/internal/usecase/valuation"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	metrics.Register()

	// 1. Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 2. Repositories
	cacheRepo := postgres.NewCacheRepository(db)
	quotaRepo := postgres.NewQuotaRepository(db)

	// 3. Data sources, in waterfall priority order
	rentcast := source.NewRentCastSource(cfg.RentCast.BaseURL, cfg.RentCast.APIKey)
	attom := source.NewAttomSource(cfg.Attom.BaseURL, cfg.Attom.APIKey)
	estimator := source.NewEstimatorSource(cfg.Estimator.BaseURL, cfg.Estimator.APIKey, cfg.Estimator.Model)

	acquisitionCfg := acquisition.Config{
		CacheTTL:        cfg.CacheTTL,
		FetchTimeout:    cfg.FetchTimeout,
		SafetyThreshold: cfg.SafetyThreshold,
		Limits: map[string]int{
			rentcast.Name():  cfg.RentCast.MonthlyLimit,
			attom.Name():     cfg.Attom.MonthlyLimit,
			estimator.Name(): cfg.Estimator.DailyLimit,
		},
	}
	waterfall := acquisition.NewService(
		[]domain.CompsSource{rentcast, attom},
		estimator,
		cacheRepo,
		quotaRepo,
		acquisitionCfg,
		logger,
	)

	// 4. Analysis pipeline; the waterfall doubles as the quota gate so
	// direct AVM calls share the same counters as comparable fetches
	analyzerSvc := analyzer.NewService(
		waterfall,
		waterfall,
		[]domain.ValueEstimator{rentcast, attom},
		valuation.NewAggregator(valuation.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultConfig()),
		scoring.DefaultAlertThresholds(),
		logger,
	)

	// 5. HTTP server
	server := rest.NewServer(analyzerSvc, waterfall, cfg.AuthToken, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(httpServer, logger)
}

// newLogger builds the tinted structured logger at the configured level
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// waitForShutdown waits for SIGTERM or SIGINT and drains the server
func waitForShutdown(httpServer *http.Server, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return
	}
	logger.Info("http server stopped")
}
