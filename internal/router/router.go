package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/doctor-api/internal/handler/health"
	promhandler "github.com/jwalitptl/doctor-api/internal/handler/prometheus"
	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

// BasePath prefixes every API route.
const BasePath = "/api/v1/doctor"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also mounts routes that need no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Handlers struct {
	Auth         Handler
	Doctor       PublicHandler
	Profile      PublicHandler
	Appointment  Handler
	Consent      Handler
	History      Handler
	Prescription Handler
	AccessLog    Handler

	Health  *health.Handler
	Metrics *promhandler.Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      middleware.RateLimiterConfig
	CORS           middleware.CORSConfig
	SizeLimit      middleware.SizeLimitConfig
	RequestTimeout time.Duration
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORS),
	)

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() {
	// Probes and scraping stay outside the rate limiter.
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}
	if r.handlers.Metrics != nil {
		r.handlers.Metrics.RegisterRoutes(r.engine)
	}

	api := r.engine.Group(BasePath)
	api.Use(
		middleware.NewRateLimiter(r.config.RateLimit).RateLimit(),
		middleware.SizeLimit(r.config.SizeLimit),
		middleware.Timeout(r.config.RequestTimeout),
	)

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterRoutes(rg)
	r.handlers.Doctor.RegisterPublicRoutes(rg)
	r.handlers.Profile.RegisterPublicRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Doctor.RegisterRoutes(rg)
	r.handlers.AccessLog.RegisterRoutes(rg)
	r.handlers.Profile.RegisterRoutes(rg)
	r.handlers.Appointment.RegisterRoutes(rg)
	r.handlers.Consent.RegisterRoutes(rg)
	r.handlers.History.RegisterRoutes(rg)
	r.handlers.Prescription.RegisterRoutes(rg)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
