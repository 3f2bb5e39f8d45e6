package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/messaging"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

// Channel is the broker channel every event is published on.
const Channel = "notifications"

const publishTimeout = 5 * time.Second

// Notifier fans domain events out to whoever listens. Delivery is best
// effort: implementations log failures and never hand them back.
type Notifier interface {
	DoctorStatusChanged(ctx context.Context, doctor *model.Doctor)
	ConsentRequested(ctx context.Context, consent *model.Consent)
	ConsentStatusChanged(ctx context.Context, consent *model.Consent)
}

func doctorEvent(d *model.Doctor) model.DoctorStatusEvent {
	return model.DoctorStatusEvent{DoctorID: d.ID, Name: d.Name, Email: d.Email, Status: d.Status}
}

func consentEvent(c *model.Consent) model.ConsentEvent {
	return model.ConsentEvent{ConsentID: c.ID, DoctorID: c.DoctorID, PatientID: c.PatientID, Status: c.Status}
}

// LogNotifier writes every event to the log and does nothing else.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) DoctorStatusChanged(_ context.Context, d *model.Doctor) {
	n.logger.Info().
		Str("event", model.EventDoctorStatusChanged).
		Str("doctor_id", d.ID.String()).
		Str("status", string(d.Status)).
		Msg("doctor status changed")
}

func (n *LogNotifier) ConsentRequested(_ context.Context, c *model.Consent) {
	n.logger.Info().
		Str("event", model.EventConsentRequested).
		Str("consent_id", c.ID.String()).
		Str("doctor_id", c.DoctorID.String()).
		Msg("consent requested")
}

func (n *LogNotifier) ConsentStatusChanged(_ context.Context, c *model.Consent) {
	n.logger.Info().
		Str("event", model.EventConsentStatusChanged).
		Str("consent_id", c.ID.String()).
		Str("status", string(c.Status)).
		Msg("consent status changed")
}

// BrokerNotifier publishes events as messaging envelopes.
type BrokerNotifier struct {
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewBrokerNotifier(broker messaging.Broker, m *metrics.Metrics, logger zerolog.Logger) *BrokerNotifier {
	return &BrokerNotifier{
		broker:  broker,
		channel: Channel,
		metrics: m,
		logger:  logger.With().Str("component", "broker_notifier").Logger(),
	}
}

func (n *BrokerNotifier) DoctorStatusChanged(ctx context.Context, d *model.Doctor) {
	n.publish(ctx, model.EventDoctorStatusChanged, doctorEvent(d))
}

func (n *BrokerNotifier) ConsentRequested(ctx context.Context, c *model.Consent) {
	n.publish(ctx, model.EventConsentRequested, consentEvent(c))
}

func (n *BrokerNotifier) ConsentStatusChanged(ctx context.Context, c *model.Consent) {
	n.publish(ctx, model.EventConsentStatusChanged, consentEvent(c))
}

func (n *BrokerNotifier) publish(ctx context.Context, event string, payload interface{}) {
	msg, err := messaging.NewMessage(event, payload)
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = n.broker.Publish(ctx, n.channel, msg)
		cancel()
	}

	if err != nil {
		n.metrics.Notifications.WithLabelValues(event, "error").Inc()
		n.logger.Error().Err(err).Str("event", event).Msg("failed to publish notification")
		return
	}
	n.metrics.Notifications.WithLabelValues(event, "ok").Inc()
}

// Multi delivers each event to every notifier in order.
type Multi []Notifier

func (m Multi) DoctorStatusChanged(ctx context.Context, d *model.Doctor) {
	for _, n := range m {
		n.DoctorStatusChanged(ctx, d)
	}
}

func (m Multi) ConsentRequested(ctx context.Context, c *model.Consent) {
	for _, n := range m {
		n.ConsentRequested(ctx, c)
	}
}

func (m Multi) ConsentStatusChanged(ctx context.Context, c *model.Consent) {
	for _, n := range m {
		n.ConsentStatusChanged(ctx, c)
	}
}

// Async runs the wrapped notifier on its own goroutine so a slow broker
// never holds up a request. The context loses its cancellation but keeps
// its values.
type Async struct {
	next Notifier
	wg   sync.WaitGroup
}

func NewAsync(next Notifier) *Async {
	return &Async{next: next}
}

func (a *Async) DoctorStatusChanged(ctx context.Context, d *model.Doctor) {
	copied := *d
	a.spawn(ctx, func(ctx context.Context) { a.next.DoctorStatusChanged(ctx, &copied) })
}

func (a *Async) ConsentRequested(ctx context.Context, c *model.Consent) {
	copied := *c
	a.spawn(ctx, func(ctx context.Context) { a.next.ConsentRequested(ctx, &copied) })
}

func (a *Async) ConsentStatusChanged(ctx context.Context, c *model.Consent) {
	copied := *c
	a.spawn(ctx, func(ctx context.Context) { a.next.ConsentStatusChanged(ctx, &copied) })
}

func (a *Async) spawn(ctx context.Context, fn func(context.Context)) {
	detached := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(detached)
	}()
}

// Wait blocks until every dispatched event has been handed off.
func (a *Async) Wait() {
	a.wg.Wait()
}
