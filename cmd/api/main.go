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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/HealthLane-PH/healthlane-web/internal/app"
	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/platform"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	"github.com/HealthLane-PH/healthlane-web/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	// Middleware logs through the global logger.
	log.Logger = *appLog.Zerolog()
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Log.Level))

	gin.SetMode(gin.ReleaseMode)
	if err := validator.RegisterGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()
	p, err := platform.Init(ctx, cfg, appLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize platform")
	}
	defer p.Close()

	application := app.New(app.Deps{
		Config:   cfg,
		Repos:    app.PostgresRepositories(p.DB),
		Storage:  p.Storage,
		Mailer:   p.Mailer,
		Broker:   p.Broker,
		DB:       p.DB,
		Log:      appLog,
		Metrics:  metrics.New("healthlane", prometheus.DefaultRegisterer),
		Registry: prometheus.DefaultRegisterer,
		Gatherer: prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      application.Router().Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
