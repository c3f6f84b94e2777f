package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park63/lead-intake/internal/api/router"
	"github.com/park63/lead-intake/internal/app/bootstrap"
	appconfig "github.com/park63/lead-intake/internal/config"
	"github.com/park63/lead-intake/internal/leads"
	"github.com/park63/lead-intake/internal/observability/metrics"
	"github.com/park63/lead-intake/internal/units"
	"github.com/park63/lead-intake/pkg/logging"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	repo := bootstrap.BuildRepository(pool, logger)
	limiter := bootstrap.BuildLimiter(redisClient, pool, cfg, logger)
	verifier := bootstrap.BuildVerifier(cfg, logger)
	intakeMetrics := metrics.NewIntakeMetrics(nil)
	dispatcher := bootstrap.BuildDispatcher(cfg, intakeMetrics, logger)

	var serviceOpts []leads.ServiceOption
	if dispatcher != nil {
		serviceOpts = append(serviceOpts, leads.WithNotifier(dispatcher))
		defer dispatcher.Close()
	}

	var unitsHandler *units.Handler
	if redisClient != nil {
		unitsStore := units.NewStore(redisClient, logger)
		if err := unitsStore.SeedIfAbsent(ctx, cfg.UnitsInitial); err != nil {
			logger.Warn("units seed failed", "error", err)
		}
		unitsHandler = units.NewHandler(unitsStore, logger)
		serviceOpts = append(serviceOpts, leads.WithUnitCounter(unitsStore))
	}

	service := leads.NewService(repo, limiter, verifier, logger, serviceOpts...)
	leadsHandler := leads.NewHandler(service, intakeMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		UnitsHandler:       unitsHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ThrottleRate:       cfg.ThrottleRate,
		ThrottleBurst:      cfg.ThrottleBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
