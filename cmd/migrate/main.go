package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations applied")
}
