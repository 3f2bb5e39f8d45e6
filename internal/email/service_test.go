package email

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func TestSendBuildsMessage(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, "noreply@clinic.test")

	require.NoError(t, svc.Send(context.Background(), "dr@clinic.test", "Approved", "Welcome aboard"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"dr@clinic.test"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Approved"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Welcome aboard")
}

func TestSendWrapsDialError(t *testing.T) {
	svc := NewService(&captureSender{err: fmt.Errorf("connection refused")}, "noreply@clinic.test")

	err := svc.Send(context.Background(), "dr@clinic.test", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendHonoursCancelledContext(t *testing.T) {
	sender := &captureSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewService(sender, "x@y").Send(ctx, "a@b", "s", "b"), context.Canceled)
	assert.Empty(t, sender.sent)
}
