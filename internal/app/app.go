// Package app assembles services and handlers from repositories and the
// platform handles. cmd/api and cmd/worker share it.
package app

import (
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/email"
	authHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/auth"
	clinicHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/clinic"
	dashboardHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/dashboard"
	doctorHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/doctor"
	eventsHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/events"
	filesHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/files"
	healthHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/health"
	staffHandler "github.com/HealthLane-PH/healthlane-web/internal/handler/staff"
	"github.com/HealthLane-PH/healthlane-web/internal/middleware"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/postgres"
	"github.com/HealthLane-PH/healthlane-web/internal/router"
	authService "github.com/HealthLane-PH/healthlane-web/internal/service/auth"
	clinicService "github.com/HealthLane-PH/healthlane-web/internal/service/clinic"
	dashboardService "github.com/HealthLane-PH/healthlane-web/internal/service/dashboard"
	doctorService "github.com/HealthLane-PH/healthlane-web/internal/service/doctor"
	eventService "github.com/HealthLane-PH/healthlane-web/internal/service/event"
	"github.com/HealthLane-PH/healthlane-web/internal/service/invite"
	"github.com/HealthLane-PH/healthlane-web/internal/service/notification"
	staffService "github.com/HealthLane-PH/healthlane-web/internal/service/staff"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/auth"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	"github.com/HealthLane-PH/healthlane-web/pkg/security"
)

type Repositories struct {
	Persons     repository.PersonRepository
	Doctors     repository.DoctorRepository
	Clinics     repository.ClinicRepository
	Credentials repository.CredentialRepository
	Outbox      repository.OutboxRepository
}

// PostgresRepositories backs every repository with db.
func PostgresRepositories(db *sqlx.DB) Repositories {
	base := postgres.NewBaseRepository(db)
	return Repositories{
		Persons:     postgres.NewPersonRepository(base),
		Doctors:     postgres.NewDoctorRepository(base),
		Clinics:     postgres.NewClinicRepository(base),
		Credentials: postgres.NewCredentialRepository(base),
		Outbox:      postgres.NewOutboxRepository(base),
	}
}

type Deps struct {
	Config  *config.Config
	Repos   Repositories
	Storage storage.Storage
	Mailer  email.Mailer
	Broker  messaging.Broker
	// DB is pinged by the readiness probe. Nil skips the check.
	DB         healthHandler.Pinger
	Log        *logger.Logger
	Metrics    *metrics.Metrics
	Registry   prometheus.Registerer
	Gatherer   prometheus.Gatherer
	BcryptCost int
}

type App struct {
	deps Deps

	Auth         *authService.Service
	Issuer       *invite.Issuer
	Redeemer     *invite.Redeemer
	Notification *notification.Service
	Clinics      *clinicService.Service
	Doctors      *doctorService.Service
	Staff        *staffService.Service
	Dashboard    *dashboardService.Service
	Dispatcher   *eventService.Dispatcher
}

func New(deps Deps) *App {
	cfg := deps.Config
	codec := security.NewInviteTokenCodec()

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Expiry:        cfg.JWT.Expiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	})
	authSvc := authService.NewService(
		deps.Repos.Credentials,
		deps.Repos.Persons,
		security.NewBcryptHasher(deps.BcryptCost),
		jwtSvc,
		deps.Log,
	)

	notifier := notification.NewService(deps.Mailer, notification.Config{
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
		LoginURL:  cfg.Mail.LoginURL,
	}, deps.Log, deps.Metrics)

	issuer := invite.NewIssuer(deps.Repos.Persons, codec, notifier, invite.Config{
		TTL:     cfg.Invite.TTL,
		BaseURL: cfg.Invite.BaseURL,
	}, deps.Log, deps.Metrics)
	redeemer := invite.NewRedeemer(deps.Repos.Persons, codec, authSvc, deps.Log, deps.Metrics)

	clinics := clinicService.NewService(deps.Repos.Clinics, deps.Log)
	doctors := doctorService.NewService(deps.Repos.Doctors, clinics, deps.Storage, doctorService.Config{
		SignedURLTTL: cfg.Storage.SignedURLTTL,
	}, deps.Log)

	return &App{
		deps:         deps,
		Auth:         authSvc,
		Issuer:       issuer,
		Redeemer:     redeemer,
		Notification: notifier,
		Clinics:      clinics,
		Doctors:      doctors,
		Staff:        staffService.NewService(deps.Repos.Persons, deps.Repos.Credentials, deps.Storage, deps.Log),
		Dashboard:    dashboardService.NewService(deps.Repos.Clinics, deps.Repos.Doctors, deps.Repos.Persons),
		Dispatcher:   eventService.NewDispatcher(issuer, deps.Repos.Doctors, notifier, deps.Log),
	}
}

// Router builds the HTTP router with every route mounted.
func (a *App) Router() *router.Router {
	cfg := a.deps.Config
	handlers := router.Handlers{
		Health:    healthHandler.NewHandler(a.deps.DB, a.deps.Gatherer),
		Auth:      authHandler.NewHandler(a.Auth, a.Redeemer),
		Doctor:    doctorHandler.NewHandler(a.Doctors),
		Staff:     staffHandler.NewHandler(a.Staff, a.Issuer),
		Clinic:    clinicHandler.NewHandler(a.Clinics),
		Dashboard: dashboardHandler.NewHandler(a.Dashboard),
		Events:    eventsHandler.NewHandler(a.deps.Broker, a.deps.Log),
	}
	if local, ok := a.deps.Storage.(*storage.LocalStorage); ok {
		handlers.Files = filesHandler.NewHandler(local, local)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(a.Auth),
		handlers,
		router.RouterConfig{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RateEnabled:    cfg.RateLimit.Enabled,
			CORSConfig:     middleware.NewCORSConfig(cfg.CORS),
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RequestTimeout: cfg.Server.RequestTimeout,
			Metrics:        middleware.NewHTTPMetrics("healthlane", a.deps.Registry),
		},
	)
	r.Setup()
	return r
}
