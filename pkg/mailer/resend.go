package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendProvider sends mail through the Resend API
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider creates a Resend provider
func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Name provider name
func (r *ResendProvider) Name() string {
	return "resend"
}

// Send sends msg via Resend
func (r *ResendProvider) Send(ctx context.Context, msg Message) (SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.Text != "" {
		params.Text = msg.Text
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	return SendResult{ProviderMessageID: sent.Id}, nil
}
