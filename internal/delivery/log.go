package delivery

import (
	"context"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/google/uuid"
)

// Log writes the report to the application log. Used for local runs.
type Log struct {
	logger *applog.Logger
}

func NewLog(logger *applog.Logger) *Log {
	return &Log{logger: logger.WithComponent(applog.ComponentDelivery)}
}

func (l *Log) Name() string { return string(ChannelLog) }

func (l *Log) Send(ctx context.Context, msg core.Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	id := uuid.NewString()
	l.logger.InfoContext(ctx, "Report delivered to log",
		applog.FieldMessageID, id,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return id, nil
}
