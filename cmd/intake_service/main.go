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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/meldeo/dialog-status-tracker/internal/intake_service/app"
	"github.com/meldeo/dialog-status-tracker/internal/intake_service/provider"
	"github.com/meldeo/dialog-status-tracker/internal/platform/config"
	"github.com/meldeo/dialog-status-tracker/internal/platform/database"
	"github.com/meldeo/dialog-status-tracker/internal/platform/logger"
	"github.com/meldeo/dialog-status-tracker/internal/platform/messagebroker"
	statestorepg "github.com/meldeo/dialog-status-tracker/internal/statestore/postgres"
)

const (
	serviceName     = "intake_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).With("service", serviceName)
	log.Info("Starting service...")

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("Database connection pool initialized")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, log)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	log.Info("NATS connection initialized")

	pollThreshold := time.Duration(cfg.PollThresholdSeconds) * time.Second
	store := statestorepg.NewPgStateStore(dbPool, log, pollThreshold)
	dispatcher := provider.NewHTTPDispatcher(log, cfg.DispatchAPIURL, cfg.DispatchAPIKey,
		&http.Client{Timeout: time.Duration(cfg.DispatchTimeoutSeconds) * time.Second})
	processor := app.NewMessageProcessor(dispatcher, store, log)
	consumer := app.NewIntakeConsumer(natsClient, processor, log)

	if err := consumer.Start(mainCtx, cfg.InboundSubject, cfg.InboundQueueGroup); err != nil {
		log.Error("Failed to start intake consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Stop()

	g, groupCtx := errgroup.WithContext(mainCtx)

	httpServer := newHTTPServer(cfg.HTTPPort, dbPool.Ping)
	g.Go(func() error {
		log.Info("Starting health/metrics HTTP server", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Info("Service components initialized and workers started. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		log.Error("A component failed, initiating shutdown", "error", groupCtx.Err())
	}

	mainCancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during graceful shutdown", "error", err)
	}
	log.Info("Service shutdown complete.")
}

func newHTTPServer(port int, ping func(context.Context) error) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := ping(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}
}
