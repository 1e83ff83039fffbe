// Package platform opens the process-wide external handles once and shares
// them with every component that needs them.
package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/email"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/postgres"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging/redis"
)

type Platform struct {
	DB      *sqlx.DB
	Broker  messaging.Broker
	Storage storage.Storage
	Mailer  email.Mailer
}

var (
	once     sync.Once
	shared   *Platform
	errShare error
)

// Init opens the database, broker, blob store and mailer on first call.
// Later calls return the same handles, or the same error.
func Init(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Platform, error) {
	once.Do(func() {
		shared, errShare = open(ctx, cfg, log)
	})
	return shared, errShare
}

func open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Platform, error) {
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	broker, err := newBroker(ctx, cfg.Redis, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage, []byte(cfg.Storage.SigningKey))
	if err != nil {
		broker.Close()
		db.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Platform{
		DB:      db,
		Broker:  broker,
		Storage: store,
		Mailer:  newMailer(cfg.Mail, log),
	}, nil
}

func newBroker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Warn("No redis url configured, events stay in process")
		return messaging.NewMemoryBroker(), nil
	}
	broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), log.Zerolog())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	return broker, nil
}

// newMailer falls back to logging messages when no relay is configured.
func newMailer(cfg config.MailConfig, log *logger.Logger) email.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("No SMTP host configured, emails will only be logged")
		return email.NewLogMailer(log)
	}
	return email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
	})
}

func (p *Platform) Close() error {
	var firstErr error
	if p.Broker != nil {
		if err := p.Broker.Close(); err != nil {
			firstErr = err
		}
	}
	if p.DB != nil {
		if err := p.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
