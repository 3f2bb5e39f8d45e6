package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/doctor-api/config"
	"github.com/jwalitptl/doctor-api/internal/email"
	"github.com/jwalitptl/doctor-api/internal/handler/health"
	promhandler "github.com/jwalitptl/doctor-api/internal/handler/prometheus"
	"github.com/jwalitptl/doctor-api/internal/service/notification"
	"github.com/jwalitptl/doctor-api/internal/worker"
	"github.com/jwalitptl/doctor-api/pkg/logger"
	"github.com/jwalitptl/doctor-api/pkg/messaging/redis"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "doctor-worker",
		Short:         "Deliver notification emails published by the API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	l.SetGlobal()
	l = l.WithFields(map[string]interface{}{"component": "worker"})

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), l.Zerolog())
	if err != nil {
		return fmt.Errorf("failed to create Redis broker: %w", err)
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(registry, "doctor_worker")

	dispatcher := worker.NewNotificationDispatcher(
		broker,
		email.NewSMTPService(cfg.SMTP.ToEmailConfig()),
		worker.DispatcherConfig{
			Channel:       notification.Channel,
			RetryAttempts: cfg.Notifications.RetryAttempts,
			RetryDelay:    cfg.Notifications.RetryDelay,
		},
		l,
		m,
	)

	srv := probeServer(cfg.Notifications.WorkerPort, broker, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, "Health check server failed")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = dispatcher.Start(ctx)
	l.Info("Shutting down...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		l.Error(serr, "Health check server forced to shutdown")
	}
	return err
}

// probeServer exposes liveness, readiness against Redis and the worker's
// metrics.
func probeServer(port int, broker *redis.RedisBroker, gatherer prometheus.Gatherer) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(map[string]health.Check{"redis": broker.Ping}).RegisterRoutes(engine)
	promhandler.New(gatherer).RegisterRoutes(engine)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
}
