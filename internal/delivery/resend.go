package delivery

import (
	"context"
	"errors"

	"github.com/Kavalar/by-kalancha/internal/core"
	"github.com/resend/resend-go/v2"
)

// emailSender is the part of the Resend SDK the channel uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend delivers reports as plain-text email through the Resend API.
type Resend struct {
	emails emailSender
}

func NewResend(apiKey string) (*Resend, error) {
	if apiKey == "" {
		return nil, errors.New("missing Resend API key")
	}
	return &Resend{emails: resend.NewClient(apiKey).Emails}, nil
}

func (r *Resend) Name() string { return string(ChannelResend) }

func (r *Resend) Send(ctx context.Context, msg core.Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	resp, err := r.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return "", failure(r.Name(), err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Id, nil
}
