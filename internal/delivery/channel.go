// Package delivery sends rendered reports through one of the configured
// channels: Resend email, a RabbitMQ queue, or the application log.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kavalar/by-kalancha/internal/core"
)

// ChannelType names a delivery backend.
type ChannelType string

const (
	ChannelResend ChannelType = "resend"
	ChannelAMQP   ChannelType = "amqp"
	ChannelLog    ChannelType = "log"
)

// Channel performs one delivery call carrying every recipient. On failure it
// returns an error wrapping core.ErrDeliveryFailed with the provider's
// diagnostic.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg core.Message) (messageID string, err error)
}

func (t ChannelType) IsValid() bool {
	switch t {
	case ChannelResend, ChannelAMQP, ChannelLog:
		return true
	}
	return false
}

func ParseChannelType(s string) (ChannelType, error) {
	t := ChannelType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid delivery backend '%s': must be one of [resend amqp log]", s)
	}
	return t, nil
}

func validate(msg core.Message) error {
	if len(msg.To) == 0 {
		return core.ErrNoRecipients
	}
	if strings.TrimSpace(msg.From) == "" {
		return errors.New("missing sender address")
	}
	return nil
}

// failure wraps a provider error as a delivery error for channel name.
func failure(channel string, err error) error {
	var de *core.DeliveryError
	if errors.As(err, &de) {
		return err
	}
	return &core.DeliveryError{Channel: channel, Diagnostic: err.Error(), Err: err}
}
