package notification

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/email"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
)

func newTestService(mailer email.Mailer) *Service {
	return NewService(mailer, Config{
		FromEmail: "info@healthlane.ph",
		FromName:  "HealthLane PH",
		LoginURL:  "https://healthlane.ph/login",
	}, logger.NewNop(), metrics.NewNop())
}

func TestBuildStaffInvite(t *testing.T) {
	svc := newTestService(&email.RecordingMailer{})
	person := &model.Person{FirstName: "Ana", Email: "ana@x.com"}
	link := "https://healthlane.ph/set-password?email=ana%40x.com&token=abc123"

	msg, err := svc.BuildStaffInvite(person, link, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", msg.To)
	assert.Equal(t, model.EmailAddress{Email: "info@healthlane.ph", Name: "HealthLane PH"}, msg.From)
	assert.Equal(t, SubjectStaffInvite, msg.Subject)
	assert.Contains(t, msg.HTML, "Welcome, Ana!")
	assert.Contains(t, msg.HTML, "token=abc123")
	assert.Contains(t, msg.HTML, "January 8, 2025")
}

func TestBuildDoctorVerified(t *testing.T) {
	svc := newTestService(&email.RecordingMailer{})
	msg, err := svc.BuildDoctorVerified(&model.Doctor{FirstName: "Maria", LastName: "Santos", Email: "dr@x.com"})
	require.NoError(t, err)

	assert.Equal(t, SubjectDoctorVerified, msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Dr. Maria Santos,")
	assert.Contains(t, msg.HTML, "https://healthlane.ph/login")
}

func TestTemplateEscapesNames(t *testing.T) {
	svc := newTestService(&email.RecordingMailer{})
	msg, err := svc.BuildDoctorVerified(&model.Doctor{FirstName: "<script>", LastName: "X", Email: "dr@x.com"})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestSendFailureIsNotificationDispatchFailed(t *testing.T) {
	mailer := &email.RecordingMailer{Err: stderrors.New("smtp down")}
	svc := newTestService(mailer)

	err := svc.SendStaffInvite(context.Background(), &model.Person{FirstName: "Ana", Email: "ana@x.com"}, "https://x", time.Now())
	assert.True(t, errors.Is(err, errors.ErrNotificationDispatch))
}

func TestSendDoctorVerifiedSkipsMissingEmail(t *testing.T) {
	mailer := &email.RecordingMailer{}
	svc := newTestService(mailer)

	require.NoError(t, svc.SendDoctorVerified(context.Background(), &model.Doctor{Base: model.Base{ID: uuid.New()}}))
	assert.Empty(t, mailer.Sent())

	require.NoError(t, svc.SendDoctorVerified(context.Background(), &model.Doctor{FirstName: "A", LastName: "B", Email: "dr@x.com"}))
	assert.Len(t, mailer.Sent(), 1)
}
