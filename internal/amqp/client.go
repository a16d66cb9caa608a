package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Kavalar/by-kalancha/internal/core"
)

type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	topology Topology
}

// Topology names the broker objects reports travel through. Messages the
// relay gives up on are dead-lettered to DeadLetterQueue instead of lost.
type Topology struct {
	Exchange        string
	Queue           string
	DeadLetterQueue string
}

// NewTopology derives the dead-letter queue name from queue.
func NewTopology(exchange, queue string) Topology {
	return Topology{Exchange: exchange, Queue: queue, DeadLetterQueue: queue + ".dead"}
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{conn: conn, channel: channel, topology: NewTopology(exchangeName, queueName)}
	if err := client.topology.declare(channel); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	return client, nil
}

// declarer is the subset of *amqp091.Channel used to set up the topology.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

// declare creates a durable direct exchange with the report queue and its
// dead-letter queue both bound by their own names.
func (t Topology) declare(ch declarer) error {
	if err := ch.ExchangeDeclare(t.Exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}

	queues := []struct {
		name string
		args amqp091.Table
	}{
		{name: t.DeadLetterQueue},
		{name: t.Queue, args: amqp091.Table{
			"x-dead-letter-exchange":    t.Exchange,
			"x-dead-letter-routing-key": t.DeadLetterQueue,
		}},
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, q.name, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q.name, err)
		}
	}
	return nil
}

// PublishReport publishes a rendered report. The broker's publish error is
// returned unchanged so callers can surface it as the delivery diagnostic.
func (c *Client) PublishReport(ctx context.Context, msg *ReportMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.topology.Exchange, c.topology.Queue, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published report message",
		"id", msg.ID,
		"recipients", len(msg.To),
		"exchange", c.topology.Exchange,
		"queue", c.topology.Queue)

	return nil
}

// ConsumeReports delivers queued reports to handler until ctx is cancelled.
// A message whose delivery failed is dead-lettered at once so the email is
// never sent twice. Other handler errors requeue the message once before it
// is dead-lettered.
func (c *Client) ConsumeReports(ctx context.Context, handler func(context.Context, *ReportMessage) error) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(c.topology.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming report messages", "queue", c.topology.Queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ReportMessageFromJSON(d.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err, "message_id", d.MessageId)
				_ = d.Nack(false, false)
				continue
			}

			switch decideAck(handler(ctx, msg), d.Redelivered) {
			case ackDone:
				_ = d.Ack(false)
				slog.InfoContext(ctx, "Report message relayed", "id", msg.ID, "recipients", len(msg.To))
			case ackRetry:
				slog.WarnContext(ctx, "Report message failed, requeueing", "id", msg.ID)
				_ = d.Nack(false, true)
			default:
				slog.ErrorContext(ctx, "Report message failed, dead-lettering", "id", msg.ID,
					"dead_letter_queue", c.topology.DeadLetterQueue)
				_ = d.Nack(false, false)
			}
		}
	}
}

type ackAction int

const (
	ackDone ackAction = iota
	ackRetry
	ackDrop
)

func decideAck(handlerErr error, redelivered bool) ackAction {
	switch {
	case handlerErr == nil:
		return ackDone
	case errors.Is(handlerErr, core.ErrDeliveryFailed), redelivered:
		return ackDrop
	default:
		return ackRetry
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}