package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/doctor-api/internal/email"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/logger"
	"github.com/jwalitptl/doctor-api/pkg/messaging"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type DispatcherConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// NotificationDispatcher consumes notification events from the broker and
// emails doctors about review decisions. Other events are only logged.
type NotificationDispatcher struct {
	broker  messaging.Broker
	mailer  email.Service
	config  DispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewNotificationDispatcher(
	broker messaging.Broker,
	mailer email.Service,
	config DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *NotificationDispatcher {
	if config.Channel == "" {
		panic("Channel must be set")
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}

	return &NotificationDispatcher{
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (d *NotificationDispatcher) Start(ctx context.Context) error {
	messages, err := d.broker.Subscribe(ctx, d.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", d.config.Channel, err)
	}

	d.logger.Info("Starting notification dispatcher", "channel", d.config.Channel)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down notification dispatcher")
			return nil
		case data, ok := <-messages:
			if !ok {
				d.logger.Warn("Notification subscription closed")
				return nil
			}
			if err := d.handle(ctx, data); err != nil {
				d.logger.Error(err, "Failed to dispatch notification")
			}
		}
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, data []byte) error {
	msg, err := messaging.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	switch msg.Type {
	case model.EventDoctorStatusChanged:
		var event model.DoctorStatusEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
		}
		err = d.sendWithRetry(ctx, event)
		d.record(msg.Type, err)
		return err
	default:
		d.logger.Info("Notification received", "type", msg.Type, "occurred_at", msg.OccurredAt)
		return nil
	}
}

func (d *NotificationDispatcher) sendWithRetry(ctx context.Context, event model.DoctorStatusEvent) error {
	if event.Email == "" {
		return fmt.Errorf("doctor %s has no email address", event.DoctorID)
	}
	subject, body := reviewEmail(event)

	var err error
	for attempt := 1; attempt <= d.config.RetryAttempts; attempt++ {
		if err = d.mailer.Send(ctx, event.Email, subject, body); err == nil {
			return nil
		}
		if attempt == d.config.RetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.config.RetryDelay):
		}
	}
	return fmt.Errorf("failed to email doctor %s after %d attempts: %w", event.DoctorID, d.config.RetryAttempts, err)
}

func (d *NotificationDispatcher) record(event string, err error) {
	result := "sent"
	if err != nil {
		result = "error"
	}
	d.metrics.Notifications.WithLabelValues(event, result).Inc()
}

func reviewEmail(event model.DoctorStatusEvent) (string, string) {
	switch event.Status {
	case model.DoctorStatusApproved:
		return "Your registration has been approved",
			fmt.Sprintf("Dear %s,\n\nYour doctor registration has been approved. You can now sign in and complete your profile.\n", event.Name)
	case model.DoctorStatusRejected:
		return "Your registration was not approved",
			fmt.Sprintf("Dear %s,\n\nAfter review, your doctor registration was not approved.\n", event.Name)
	default:
		return "Your registration status changed",
			fmt.Sprintf("Dear %s,\n\nYour registration status is now %s.\n", event.Name, event.Status)
	}
}
