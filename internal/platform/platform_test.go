package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/email"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
)

func TestNewBrokerFallsBackToMemory(t *testing.T) {
	broker, err := newBroker(context.Background(), config.RedisConfig{}, logger.NewNop())
	require.NoError(t, err)
	defer broker.Close()

	assert.IsType(t, &messaging.MemoryBroker{}, broker)
}

func TestNewBrokerRejectsBadURL(t *testing.T) {
	_, err := newBroker(context.Background(), config.RedisConfig{URL: "://nope"}, logger.NewNop())
	assert.Error(t, err)
}

func TestNewMailer(t *testing.T) {
	assert.IsType(t, &email.LogMailer{}, newMailer(config.MailConfig{}, logger.NewNop()))
	assert.IsType(t, &email.SMTPMailer{}, newMailer(config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}, logger.NewNop()))
}

func TestCloseToleratesMissingHandles(t *testing.T) {
	p := &Platform{Broker: messaging.NewMemoryBroker()}
	assert.NoError(t, p.Close())
}
