package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/HealthLane-PH/healthlane-web/internal/app"
	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/platform"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	"github.com/HealthLane-PH/healthlane-web/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(p *platform.Platform, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := p.DB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	hostname, _ := os.Hostname()
	appLog = appLog.WithFields(map[string]interface{}{
		"worker_id": fmt.Sprintf("worker-%s-%d", hostname, os.Getpid()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := platform.Init(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal(err, "Failed to initialize platform")
	}
	defer p.Close()

	repos := app.PostgresRepositories(p.DB)
	m := metrics.New("healthlane", prometheus.DefaultRegisterer)
	application := app.New(app.Deps{
		Config:  cfg,
		Repos:   repos,
		Storage: p.Storage,
		Mailer:  p.Mailer,
		Broker:  p.Broker,
		Log:     appLog,
		Metrics: m,
	})

	processor := worker.NewOutboxProcessor(
		repos.Outbox,
		application.Dispatcher,
		p.Broker,
		cfg.Outbox.ToWorkerConfig(),
		appLog,
		m,
	)
	cleanup := worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.ToCleanupConfig(), appLog, m)

	health := setupHealthCheck(p, appLog)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLog.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := health.Shutdown(shutdownCtx); err != nil {
		appLog.Error(err, "Failed to stop health check server")
	}
}
