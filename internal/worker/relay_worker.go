// Package worker relays reports queued by the amqp delivery channel to a
// mail channel.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kavalar/by-kalancha/internal/amqp"
	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

type sender interface {
	Name() string
	Send(ctx context.Context, msg core.Message) (string, error)
}

// RelayWorker forwards one queued report per call.
type RelayWorker struct {
	sender sender
	logger *applog.Logger
}

func NewRelayWorker(s sender, logger *applog.Logger) *RelayWorker {
	return &RelayWorker{sender: s, logger: logger.WithComponent(applog.ComponentDelivery)}
}

// HandleReportMessage sends msg. Messages with no recipients are logged and
// acknowledged. A delivery failure is returned wrapping core.ErrDeliveryFailed,
// which the consumer dead-letters without a second send.
func (w *RelayWorker) HandleReportMessage(ctx context.Context, msg *amqp.ReportMessage) error {
	id, err := w.sender.Send(ctx, core.Message{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if errors.Is(err, core.ErrNoRecipients) {
		w.logger.WarnContext(ctx, "Queued report has no recipients, discarding", "queue_id", msg.ID)
		return nil
	}
	if err != nil {
		var de *core.DeliveryError
		if errors.As(err, &de) {
			w.logger.ErrorContext(ctx, "Relay delivery failed",
				"queue_id", msg.ID,
				applog.FieldChannel, de.Channel,
				applog.FieldDiagnostic, de.Diagnostic)
		}
		return fmt.Errorf("relay report %s: %w", msg.ID, err)
	}

	w.logger.InfoContext(ctx, "Report relayed",
		"queue_id", msg.ID,
		applog.FieldChannel, w.sender.Name(),
		applog.FieldRecipients, len(msg.To),
		applog.FieldMessageID, id)
	return nil
}
