package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
)

func testMessage() *model.EmailMessage {
	return &model.EmailMessage{
		Template: model.TemplateStaffInvite,
		To:       "ana@x.com",
		From:     model.EmailAddress{Email: "info@healthlane.ph", Name: "HealthLane PH"},
		Subject:  "Set up your HealthLane Staff Account",
		HTML:     `<a href="https://healthlane.ph/set-password?token=deadbeef">Set</a>`,
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	m := buildMessage(testMessage())

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "To: ana@x.com")
	assert.Contains(t, raw, `"HealthLane PH" <info@healthlane.ph>`)
	assert.Contains(t, raw, "Content-Type: text/html")
}

func TestLogMailerNeverLogsBody(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf, JSON: true}))

	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Contains(t, buf.String(), "ana@x.com")
	assert.False(t, strings.Contains(buf.String(), "deadbeef"))
}

func TestRecordingMailer(t *testing.T) {
	r := &RecordingMailer{}
	require.NoError(t, r.Send(context.Background(), testMessage()))
	assert.Len(t, r.Sent(), 1)

	r.Err = errors.New("down")
	assert.Error(t, r.Send(context.Background(), testMessage()))
	assert.Len(t, r.Sent(), 1)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, testMessage()), context.Canceled)
}
