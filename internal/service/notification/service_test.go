package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/messaging"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type fakeBroker struct {
	mu        sync.Mutex
	published []*messaging.Message
	channels  []string
	err       error
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.channels = append(b.channels, channel)
	b.published = append(b.published, message.(*messaging.Message))
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (b *fakeBroker) Close() error { return nil }

type recorder struct {
	mu     sync.Mutex
	events []string
	ctxErr error
}

func (r *recorder) add(event string, ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.ctxErr = ctx.Err()
}

func (r *recorder) DoctorStatusChanged(ctx context.Context, _ *model.Doctor) {
	r.add(model.EventDoctorStatusChanged, ctx)
}

func (r *recorder) ConsentRequested(ctx context.Context, _ *model.Consent) {
	r.add(model.EventConsentRequested, ctx)
}

func (r *recorder) ConsentStatusChanged(ctx context.Context, _ *model.Consent) {
	r.add(model.EventConsentStatusChanged, ctx)
}

func TestBrokerNotifierPublishesEnvelope(t *testing.T) {
	broker := &fakeBroker{}
	m := metrics.NewNop()
	n := NewBrokerNotifier(broker, m, zerolog.Nop())

	doctor := &model.Doctor{Name: "Grey", Email: "grey@example.com", Status: model.DoctorStatusApproved}
	doctor.ID = uuid.New()
	n.DoctorStatusChanged(context.Background(), doctor)

	require.Len(t, broker.published, 1)
	assert.Equal(t, Channel, broker.channels[0])

	msg := broker.published[0]
	assert.Equal(t, model.EventDoctorStatusChanged, msg.Type)

	var event model.DoctorStatusEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, doctor.ID, event.DoctorID)
	assert.Equal(t, model.DoctorStatusApproved, event.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(model.EventDoctorStatusChanged, "ok")))
}

func TestBrokerNotifierSwallowsFailures(t *testing.T) {
	m := metrics.NewNop()
	var logs bytes.Buffer
	n := NewBrokerNotifier(&fakeBroker{err: fmt.Errorf("circuit breaker is open")}, m, zerolog.New(&logs))

	consent := &model.Consent{DoctorID: uuid.New(), PatientID: uuid.New(), Status: model.ConsentStatusPending}
	n.ConsentRequested(context.Background(), consent)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(model.EventConsentRequested, "error")))
	assert.Contains(t, logs.String(), "failed to publish notification")
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b}.ConsentStatusChanged(context.Background(), &model.Consent{})

	assert.Equal(t, []string{model.EventConsentStatusChanged}, a.events)
	assert.Equal(t, []string{model.EventConsentStatusChanged}, b.events)
}

func TestAsyncSurvivesRequestCancellation(t *testing.T) {
	rec := &recorder{}
	async := NewAsync(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	async.DoctorStatusChanged(ctx, &model.Doctor{})
	async.ConsentRequested(ctx, &model.Consent{})
	async.Wait()

	assert.ElementsMatch(t, []string{model.EventDoctorStatusChanged, model.EventConsentRequested}, rec.events)
	assert.NoError(t, rec.ctxErr)
}

func TestLogNotifierWritesEvent(t *testing.T) {
	var logs bytes.Buffer
	n := NewLogNotifier(zerolog.New(&logs))

	n.ConsentStatusChanged(context.Background(), &model.Consent{Status: model.ConsentStatusDenied})
	assert.Contains(t, logs.String(), `"event":"consent.status_changed"`)
	assert.Contains(t, logs.String(), `"status":"denied"`)
}
