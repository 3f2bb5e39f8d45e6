package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/doctor-api/config"
	"github.com/jwalitptl/doctor-api/internal/access"
	appointmentHandler "github.com/jwalitptl/doctor-api/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/doctor-api/internal/handler/audit"
	authHandler "github.com/jwalitptl/doctor-api/internal/handler/auth"
	consentHandler "github.com/jwalitptl/doctor-api/internal/handler/consent"
	doctorHandler "github.com/jwalitptl/doctor-api/internal/handler/doctor"
	"github.com/jwalitptl/doctor-api/internal/handler/health"
	historyHandler "github.com/jwalitptl/doctor-api/internal/handler/history"
	prescriptionHandler "github.com/jwalitptl/doctor-api/internal/handler/prescription"
	profileHandler "github.com/jwalitptl/doctor-api/internal/handler/profile"
	promhandler "github.com/jwalitptl/doctor-api/internal/handler/prometheus"
	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/internal/repository/postgres"
	"github.com/jwalitptl/doctor-api/internal/router"
	appointmentService "github.com/jwalitptl/doctor-api/internal/service/appointment"
	auditService "github.com/jwalitptl/doctor-api/internal/service/audit"
	consentService "github.com/jwalitptl/doctor-api/internal/service/consent"
	doctorService "github.com/jwalitptl/doctor-api/internal/service/doctor"
	historyService "github.com/jwalitptl/doctor-api/internal/service/history"
	"github.com/jwalitptl/doctor-api/internal/service/identity"
	"github.com/jwalitptl/doctor-api/internal/service/notification"
	prescriptionService "github.com/jwalitptl/doctor-api/internal/service/prescription"
	profileService "github.com/jwalitptl/doctor-api/internal/service/profile"
	"github.com/jwalitptl/doctor-api/pkg/auth"
	"github.com/jwalitptl/doctor-api/pkg/blobstore"
	"github.com/jwalitptl/doctor-api/pkg/logger"
	"github.com/jwalitptl/doctor-api/pkg/messaging/redis"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
	"github.com/jwalitptl/doctor-api/pkg/security"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

const metricsNamespace = "doctor_api"

// app holds everything a command needs. The HTTP stack is only built for
// serve; the other commands stop after the database and identity.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	db       *sqlx.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	users    repository.UserRepository
	identity *identity.Service

	broker *redis.RedisBroker
	async  *notification.Async
	router *router.Router
}

func newApp(ctx context.Context, configPath string, withHTTP bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	l.SetGlobal()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, cfg.Database.Name),
	)

	base := postgres.NewBaseRepository(db)
	users := postgres.NewUserRepository(base)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	a := &app{
		cfg:      cfg,
		logger:   *l.Zerolog(),
		db:       db,
		registry: registry,
		metrics:  metrics.NewMetrics(registry, metricsNamespace),
		users:    users,
		identity: identity.NewService(users, jwtSvc, security.NewBcryptHasher(bcrypt.DefaultCost), cfg.JWT.TTL),
	}

	if withHTTP {
		if err := a.buildHTTP(base); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) buildHTTP(base postgres.BaseRepository) error {
	cfg := a.cfg

	blobs, err := blobstore.NewFSStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	notifier, err := a.buildNotifier()
	if err != nil {
		return err
	}

	doctorRepo := postgres.NewDoctorRepository(base)
	profileRepo := postgres.NewProfileRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	consentRepo := postgres.NewConsentRepository(base)
	historyRepo := postgres.NewHistoryRepository(base)
	accessLogRepo := postgres.NewAccessLogRepository(base)
	prescriptionRepo := postgres.NewPrescriptionRepository(base)

	v := validator.New()
	resolver := access.NewResolver(doctorRepo)

	doctorSvc := doctorService.NewService(doctorRepo, a.identity, blobs, v, notifier, a.metrics, a.logger)
	profileSvc := profileService.NewService(profileRepo, doctorRepo, resolver, v, profileService.CacheConfig{
		TTL:             cfg.Cache.PreviewTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, a.logger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, resolver, v, a.logger)
	consentSvc := consentService.NewService(consentRepo, resolver, notifier, a.metrics, a.logger)
	historySvc := historyService.NewService(historyRepo, resolver, a.metrics, a.logger)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentRepo, resolver, blobs, v, a.metrics, a.logger)
	auditSvc := auditService.NewService(accessLogRepo)

	checks := map[string]health.Check{
		"database": a.db.PingContext,
	}
	if a.broker != nil {
		checks["redis"] = a.broker.Ping
	}

	handlers := router.Handlers{
		Auth:         authHandler.NewHandler(a.identity),
		Doctor:       doctorHandler.NewHandler(doctorSvc),
		Profile:      profileHandler.NewHandler(profileSvc),
		Appointment:  appointmentHandler.NewHandler(appointmentSvc),
		Consent:      consentHandler.NewHandler(consentSvc),
		History:      historyHandler.NewHandler(historySvc),
		Prescription: prescriptionHandler.NewHandler(prescriptionSvc),
		AccessLog:    auditHandler.NewHandler(auditSvc),
		Health:       health.NewHandler(checks),
		Metrics:      promhandler.New(a.registry),
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	cors.AllowCredentials = cfg.CORS.AllowCredentials

	a.router = router.NewRouter(
		middleware.NewAuthMiddleware(a.identity),
		handlers,
		a.metrics,
		router.RouterConfig{
			Mode: cfg.Server.Mode,
			RateLimit: middleware.RateLimiterConfig{
				RPS:     cfg.RateLimit.RequestsPerSecond,
				Burst:   cfg.RateLimit.Burst,
				IdleTTL: cfg.RateLimit.IdleTTL,
			},
			CORS: cors,
			SizeLimit: middleware.SizeLimitConfig{
				MaxBodySize:   cfg.Server.MaxBodySize,
				MaxUploadSize: cfg.Server.MaxUploadSize,
			},
			RequestTimeout: cfg.Server.RequestTimeout,
		},
	)
	a.router.Setup()
	return nil
}

// buildNotifier always logs events; with notifications enabled it also
// publishes them to Redis for the worker.
func (a *app) buildNotifier() (notification.Notifier, error) {
	notifiers := notification.Multi{notification.NewLogNotifier(a.logger)}

	if a.cfg.Notifications.Enabled {
		broker, err := redis.NewRedisBroker(a.cfg.Redis.ToBrokerConfig(), &a.logger)
		if err != nil {
			return nil, err
		}
		a.broker = broker
		notifiers = append(notifiers, notification.NewBrokerNotifier(broker, a.metrics, a.logger))
	}

	a.async = notification.NewAsync(notifiers)
	return a.async, nil
}

// Close waits for in-flight notifications before releasing connections.
func (a *app) Close() {
	if a.async != nil {
		a.async.Wait()
	}
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close broker")
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error().Err(err).Msg("failed to close database")
	}
}
