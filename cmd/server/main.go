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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/actuals"
	"github.com/zeewaqar/stock-prediction-app/internal/api"
	"github.com/zeewaqar/stock-prediction-app/internal/config"
	"github.com/zeewaqar/stock-prediction-app/internal/db"
	"github.com/zeewaqar/stock-prediction-app/internal/external"
	"github.com/zeewaqar/stock-prediction-app/internal/forecast"
	"github.com/zeewaqar/stock-prediction-app/internal/history"
	"github.com/zeewaqar/stock-prediction-app/internal/notifications"
	"github.com/zeewaqar/stock-prediction-app/internal/repository"
	"github.com/zeewaqar/stock-prediction-app/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║   Stock Forecast Dashboard API v1    ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	log.Info().Str("host", cfg.DBHost).Int("port", cfg.DBPort).Str("db", cfg.DBName).Msg("connecting to database")
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		pool.Close()
		log.Info().Msg("database pool closed")
	}()

	// Repos
	predictionRepo := repository.NewPredictionRepo(pool)
	priceRepo := repository.NewStockPriceRepo(pool)

	// External providers, all behind the same bounded-retry policy
	retry := cfg.RetryConfig()
	timeout := cfg.RequestTimeout()
	fmp := external.NewFMPClient(cfg.FMPAPIKey, retry, timeout)
	alpha := external.NewAlphaVantageClient(cfg.AlphaVantageAPIKey, retry, timeout)
	groq := external.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, retry, 30*time.Second)

	// Services
	fetcher := history.NewFetcher(priceRepo, fmp)
	generator := forecast.NewGenerator(groq, predictionRepo)
	updater := actuals.NewUpdater(predictionRepo, alpha, cfg.ActualsWorkers)

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(api.Deps{
		Pool:       pool,
		Forecaster: generator,
		History:    fetcher,
		Actuals:    updater,
	}, cfg.Port, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	// 2. Actuals scheduler (opt-in)
	var sched *scheduler.ActualsScheduler
	if cfg.ActualsRefreshHours > 0 {
		sched = scheduler.NewActualsScheduler(updater, scheduler.ActualsSchedulerConfig{
			Interval: time.Duration(cfg.ActualsRefreshHours) * time.Hour,
			OnComplete: func(res actuals.Result) {
				if res.Checked > 0 {
					notify.Send(fmt.Sprintf("Actuals refresh: %d/%d updated, %d skipped, %d failed",
						res.Updated, res.Checked, res.Skipped, res.Failed))
				}
			},
		})
		sched.Start()
	} else {
		log.Info().Msg("actuals scheduler disabled — set ACTUALS_REFRESH_HOURS to enable")
	}

	log.Info().Msg("all services started")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown error")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
