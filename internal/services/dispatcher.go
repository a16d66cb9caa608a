package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kavalar/by-kalancha/internal/core"
	"github.com/Kavalar/by-kalancha/internal/delivery"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/records"
)

// Dispatcher looks up the report recipients and makes exactly one delivery
// call for all of them. It never retries.
type Dispatcher struct {
	recipients records.RecipientSource
	channel    delivery.Channel
	from       string
	logger     *applog.Logger
	structured *applog.StructuredLogger
}

func NewDispatcher(recipients records.RecipientSource, channel delivery.Channel, from string, logger *applog.Logger) *Dispatcher {
	logger = logger.WithComponent(applog.ComponentDelivery)
	return &Dispatcher{
		recipients: recipients,
		channel:    channel,
		from:       from,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
	}
}

// Dispatch fails with core.ErrNoRecipients when the settings record is
// missing or lists nobody, and with core.ErrDeliveryFailed when the channel
// rejects the call.
func (d *Dispatcher) Dispatch(ctx context.Context, rep core.RenderedReport) (core.DispatchOutcome, error) {
	to, err := d.lookupRecipients(ctx)
	if err != nil {
		return core.DispatchOutcome{}, err
	}

	id, err := d.channel.Send(ctx, core.Message{
		From:    d.from,
		To:      to,
		Subject: rep.Title,
		Body:    rep.Body,
	})
	if err != nil {
		var de *core.DeliveryError
		if !errors.As(err, &de) {
			de = &core.DeliveryError{Channel: d.channel.Name(), Diagnostic: err.Error(), Err: err}
		}
		fields := applog.NewFields().WithDelivery(de.Channel, len(to), "")
		fields[applog.FieldDiagnostic] = de.Diagnostic
		d.structured.LogError(ctx, "Report delivery failed", de.Err, applog.ComponentDelivery, applog.OpDispatch, fields)
		return core.DispatchOutcome{}, de
	}

	return core.DispatchOutcome{Channel: d.channel.Name(), MessageID: id, Recipients: len(to)}, nil
}

func (d *Dispatcher) lookupRecipients(ctx context.Context) ([]string, error) {
	raw, err := d.recipients.Recipients(ctx)
	if errors.Is(err, core.ErrSettingsNotFound) {
		return nil, fmt.Errorf("%w: settings record not found", core.ErrNoRecipients)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipients: %w", err)
	}
	to := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: recipient list is empty", core.ErrNoRecipients)
	}
	return to, nil
}
