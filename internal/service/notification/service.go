// Package notification builds the transactional emails and hands them to a
// mailer. Send failures are reported as NotificationDispatchFailed; callers
// decide whether to swallow them.
package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/HealthLane-PH/healthlane-web/internal/email"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
)

const (
	SubjectStaffInvite    = "Set up your HealthLane Staff Account"
	SubjectDoctorVerified = "🎉 Your HealthLane account has been verified!"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Config struct {
	FromEmail string
	FromName  string
	LoginURL  string
}

type Service struct {
	mailer  email.Mailer
	cfg     Config
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(mailer email.Mailer, cfg Config, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		mailer:  mailer,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

type staffInviteData struct {
	FirstName string
	Link      string
	LoginURL  string
	ExpiresAt string
	Year      int
}

type doctorVerifiedData struct {
	DoctorName string
	LoginURL   string
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) from() model.EmailAddress {
	return model.EmailAddress{Email: s.cfg.FromEmail, Name: s.cfg.FromName}
}

// BuildStaffInvite renders the invite for person with the redemption link.
func (s *Service) BuildStaffInvite(person *model.Person, link string, expiresAt time.Time) (*model.EmailMessage, error) {
	html, err := render("staff_invite.html", staffInviteData{
		FirstName: person.DisplayName(),
		Link:      link,
		LoginURL:  s.cfg.LoginURL,
		ExpiresAt: expiresAt.Format("January 2, 2006"),
		Year:      s.now().Year(),
	})
	if err != nil {
		return nil, err
	}
	return &model.EmailMessage{
		Template: model.TemplateStaffInvite,
		To:       person.Email,
		From:     s.from(),
		Subject:  SubjectStaffInvite,
		HTML:     html,
	}, nil
}

func (s *Service) BuildDoctorVerified(doctor *model.Doctor) (*model.EmailMessage, error) {
	html, err := render("doctor_verified.html", doctorVerifiedData{
		DoctorName: doctor.FirstName + " " + doctor.LastName,
		LoginURL:   s.cfg.LoginURL,
	})
	if err != nil {
		return nil, err
	}
	return &model.EmailMessage{
		Template: model.TemplateDoctorVerified,
		To:       doctor.Email,
		From:     s.from(),
		Subject:  SubjectDoctorVerified,
		HTML:     html,
	}, nil
}

func (s *Service) dispatch(ctx context.Context, msg *model.EmailMessage) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.EmailsSent.WithLabelValues(string(msg.Template), "error").Inc()
		return errors.NotificationDispatchFailed(string(msg.Template), err)
	}
	s.metrics.EmailsSent.WithLabelValues(string(msg.Template), "sent").Inc()
	s.log.Info("Email dispatched", "template", string(msg.Template), "to", msg.To)
	return nil
}

func (s *Service) SendStaffInvite(ctx context.Context, person *model.Person, link string, expiresAt time.Time) error {
	msg, err := s.BuildStaffInvite(person, link, expiresAt)
	if err != nil {
		return errors.NotificationDispatchFailed(string(model.TemplateStaffInvite), err)
	}
	return s.dispatch(ctx, msg)
}

// SendDoctorVerified is a no-op for doctors without an email address.
func (s *Service) SendDoctorVerified(ctx context.Context, doctor *model.Doctor) error {
	if doctor.Email == "" {
		s.log.Warn("Doctor has no email, skipping verification notice", "doctor_id", doctor.ID.String())
		return nil
	}
	msg, err := s.BuildDoctorVerified(doctor)
	if err != nil {
		return errors.NotificationDispatchFailed(string(model.TemplateDoctorVerified), err)
	}
	return s.dispatch(ctx, msg)
}
