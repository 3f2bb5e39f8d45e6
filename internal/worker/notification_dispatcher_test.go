package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/logger"
	"github.com/jwalitptl/doctor-api/pkg/messaging"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type chanBroker struct {
	ch chan []byte
}

func (b *chanBroker) Publish(context.Context, string, interface{}) error { return nil }

func (b *chanBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, nil
}

func (b *chanBroker) Close() error { return nil }

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failures int
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func encode(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	msg, err := messaging.NewMessage(eventType, payload)
	require.NoError(t, err)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func newDispatcher(mailer *fakeMailer, ch chan []byte, m *metrics.Metrics) *NotificationDispatcher {
	return NewNotificationDispatcher(&chanBroker{ch: ch}, mailer, DispatcherConfig{
		Channel:       "notifications",
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.Nop(), m)
}

func TestDispatcherEmailsApprovedDoctor(t *testing.T) {
	mailer := &fakeMailer{failures: 1}
	ch := make(chan []byte, 2)
	m := metrics.NewNop()
	d := newDispatcher(mailer, ch, m)

	ch <- encode(t, model.EventDoctorStatusChanged, model.DoctorStatusEvent{
		DoctorID: uuid.New(),
		Name:     "Meredith Grey",
		Email:    "grey@example.com",
		Status:   model.DoctorStatusApproved,
	})
	ch <- encode(t, model.EventConsentRequested, model.ConsentEvent{ConsentID: uuid.New()})
	close(ch)

	require.NoError(t, d.Start(context.Background()))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "grey@example.com", mailer.sent[0].to)
	assert.Equal(t, "Your registration has been approved", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Meredith Grey")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(model.EventDoctorStatusChanged, "sent")))
}

func TestDispatcherGivesUpAfterRetries(t *testing.T) {
	mailer := &fakeMailer{failures: 5}
	m := metrics.NewNop()
	d := newDispatcher(mailer, make(chan []byte), m)

	err := d.handle(context.Background(), encode(t, model.EventDoctorStatusChanged, model.DoctorStatusEvent{
		DoctorID: uuid.New(),
		Email:    "grey@example.com",
		Status:   model.DoctorStatusRejected,
	}))
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 2, mailer.failures)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(model.EventDoctorStatusChanged, "error")))
}

func TestDispatcherRejectsGarbage(t *testing.T) {
	d := newDispatcher(&fakeMailer{}, make(chan []byte), metrics.NewNop())
	assert.Error(t, d.handle(context.Background(), []byte("not json")))
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	d := newDispatcher(&fakeMailer{}, make(chan []byte), metrics.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Start(ctx))
}
