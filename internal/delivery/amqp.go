package delivery

import (
	"context"

	"github.com/Kavalar/by-kalancha/internal/amqp"
	"github.com/Kavalar/by-kalancha/internal/core"
)

type reportPublisher interface {
	PublishReport(ctx context.Context, msg *amqp.ReportMessage) error
}

// Queue hands rendered reports to a RabbitMQ queue for an external mailer.
type Queue struct {
	publisher reportPublisher
}

func NewQueue(publisher reportPublisher) *Queue {
	return &Queue{publisher: publisher}
}

func (q *Queue) Name() string { return string(ChannelAMQP) }

func (q *Queue) Send(ctx context.Context, msg core.Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	m := amqp.NewReportMessage(msg.From, msg.To, msg.Subject, msg.Body)
	if err := q.publisher.PublishReport(ctx, m); err != nil {
		return "", failure(q.Name(), err)
	}
	return m.ID, nil
}
