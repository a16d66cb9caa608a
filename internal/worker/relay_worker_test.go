package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kavalar/by-kalancha/internal/amqp"
	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Name() string { return "resend" }

func (m *mockSender) Send(ctx context.Context, msg core.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newWorker(s sender) (*RelayWorker, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&buf, nil)})
	return NewRelayWorker(s, logger), &buf
}

func TestRelayWorker_Forwards(t *testing.T) {
	s := &mockSender{}
	msg := amqp.NewReportMessage("reports@example.com", []string{"owner@example.com"}, "🔔 Звіт", "body")
	s.On("Send", mock.Anything, core.Message{
		From: "reports@example.com", To: []string{"owner@example.com"}, Subject: "🔔 Звіт", Body: "body",
	}).Return("email-1", nil).Once()

	w, logs := newWorker(s)
	require.NoError(t, w.HandleReportMessage(context.Background(), msg))

	s.AssertExpectations(t)
	assert.Contains(t, logs.String(), "message_id=email-1")
}

func TestRelayWorker_DeliveryFailureIsReturned(t *testing.T) {
	s := &mockSender{}
	de := &core.DeliveryError{Channel: "resend", Diagnostic: "422 invalid from", Err: errors.New("rejected")}
	s.On("Send", mock.Anything, mock.Anything).Return("", de)

	w, logs := newWorker(s)
	err := w.HandleReportMessage(context.Background(), amqp.NewReportMessage("f", []string{"a@b.c"}, "s", "b"))

	assert.ErrorIs(t, err, core.ErrDeliveryFailed)
	assert.Contains(t, logs.String(), "422 invalid from")
}

func TestRelayWorker_NoRecipientsIsDiscarded(t *testing.T) {
	s := &mockSender{}
	s.On("Send", mock.Anything, mock.Anything).Return("", fmt.Errorf("resend: %w", core.ErrNoRecipients))

	w, logs := newWorker(s)
	assert.NoError(t, w.HandleReportMessage(context.Background(), amqp.NewReportMessage("f", nil, "s", "b")))
	assert.Contains(t, logs.String(), "discarding")
}
