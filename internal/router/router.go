package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/HealthLane-PH/healthlane-web/internal/middleware"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also mounts routes that need no session.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Handlers struct {
	Health    Handler
	Auth      Handler
	Doctor    PublicHandler
	Staff     Handler
	Clinic    Handler
	Dashboard Handler
	Events    Handler
	// Files serves signed local-disk URLs. Nil when uploads live elsewhere.
	Files     Handler
}

type RouterConfig struct {
	RateLimit      rate.Limit
	RateBurst      int
	RateEnabled    bool
	CORSConfig     middleware.CORSConfig
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Metrics        *middleware.HTTPMetrics
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
	config RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, h Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine: engine,
		auth:   auth,
		h:      h,
		config: config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if config.Metrics != nil {
		engine.Use(config.Metrics.Middleware())
	}
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodyBytes))
	}

	return r
}

func (r *Router) Setup() {
	if r.h.Files != nil {
		r.h.Files.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.h.Health.RegisterRoutes(api)

	// The event stream is long-lived and is kept out of the request timeout.
	stream := api.Group("")
	stream.Use(r.auth.Authenticate(), r.auth.RequireRoles(model.PortalRoles...))
	r.h.Events.RegisterRoutes(stream)

	timed := api.Group("")
	if r.config.RequestTimeout > 0 {
		timed.Use(middleware.Timeout(r.config.RequestTimeout))
	}

	r.setupPublicRoutes(timed)
	r.setupProtectedRoutes(timed)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	public := rg.Group("")
	if r.config.RateEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		public.Use(limiter.RateLimit())
	}
	public.Use(middleware.Cache(middleware.NoStore()))

	r.h.Auth.RegisterRoutes(public)
	r.h.Doctor.RegisterPublicRoutes(public)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	protected := rg.Group("")
	protected.Use(
		r.auth.Authenticate(),
		r.auth.RequireRoles(model.PortalRoles...),
		middleware.Cache(middleware.NoStore()),
	)

	r.h.Doctor.RegisterRoutes(protected)
	r.h.Clinic.RegisterRoutes(protected)
	r.h.Dashboard.RegisterRoutes(protected)

	// Only owners and admins manage staff accounts.
	admins := protected.Group("")
	admins.Use(r.auth.RequireRoles(model.PersonRoleOwner, model.PersonRoleAdmin))
	r.h.Staff.RegisterRoutes(admins)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
