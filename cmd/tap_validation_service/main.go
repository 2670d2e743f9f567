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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/RoamIT/roamhub/golang_services/internal/platform/config"
	"github.com/RoamIT/roamhub/golang_services/internal/platform/database"
	"github.com/RoamIT/roamhub/golang_services/internal/platform/logger"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/codec"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/transport"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/app"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/repository/postgres"
)

const (
	serviceName     = "tap-validation-service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)

	if cfg.OurTAPCode == "" {
		appLogger.Error("OUR_TAP_CODE is not configured; cannot decide file addressing")
		os.Exit(1)
	}

	appLogger.Info("TAP validation service starting",
		"input_dir", cfg.TAPInputDir,
		"output_dir", cfg.RAPOutputDir,
		"our_tap_code", cfg.OurTAPCode,
		"metrics_port", cfg.MetricsPort,
		"log_level", cfg.LogLevel,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL")

	referenceRepo := postgres.NewPgReferenceRepository(dbPool, appLogger, cfg.RoamingHubID)
	jsonCodec := codec.NewJSONCodec()
	writer := transport.NewFileWriter()

	var uploader transport.Uploader
	if cfg.UploadBaseDir != "" {
		uploader = transport.NewLocalDirUploader(cfg.UploadBaseDir, appLogger)
	} else {
		uploader = transport.NewNoopUploader(appLogger)
	}

	metrics := app.NewMetrics(prometheus.DefaultRegisterer)
	validator := app.NewValidationService(
		referenceRepo,
		jsonCodec,
		writer,
		uploader,
		appLogger,
		metrics,
		cfg.OurTAPCode,
		cfg.RoamingHubID,
		cfg.RAPOutputDir,
	)

	pollInterval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	poller := app.NewPoller(cfg.TAPInputDir, pollInterval, jsonCodec, validator, appLogger)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		if err := poller.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("Poller stopped with error", "error", err)
			return err
		}
		return nil
	})

	httpRouter := chi.NewRouter()
	httpRouter.Use(chiMiddleware.RequestID)
	httpRouter.Use(chiMiddleware.Recoverer)
	httpRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	httpRouter.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("Metrics HTTP server shut down gracefully.")
		return nil
	})

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Shutdown signal received", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics HTTP server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service stopped")
}
