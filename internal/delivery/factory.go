package delivery

import (
	"fmt"

	"github.com/Kavalar/by-kalancha/internal/amqp"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

// Config selects and configures the delivery channel.
type Config struct {
	Type         ChannelType
	ResendAPIKey string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Result holds the channel and its cleanup function.
type Result struct {
	Channel Channel
	Cleanup func()
}

// New creates the configured delivery channel.
func New(cfg Config, logger *applog.Logger) (*Result, error) {
	switch cfg.Type {
	case ChannelResend:
		ch, err := NewResend(cfg.ResendAPIKey)
		if err != nil {
			return nil, err
		}
		return &Result{Channel: ch, Cleanup: func() {}}, nil

	case ChannelAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("amqp delivery: %w", err)
		}
		return &Result{
			Channel: NewQueue(client),
			Cleanup: func() {
				if err := client.Close(); err != nil {
					logger.Error("Failed to close AMQP client", applog.FieldError, err)
				}
			},
		}, nil

	case ChannelLog, "":
		return &Result{Channel: NewLog(logger), Cleanup: func() {}}, nil
	}
	return nil, fmt.Errorf("unsupported delivery backend: %s", cfg.Type)
}
