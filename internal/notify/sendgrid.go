package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/identia/apiserver/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier sends verification mail through the SendGrid API.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   string
}

// NewSendGridNotifier constructs a SendGrid notifier from mail config.
func NewSendGridNotifier(cfg config.MailConfig) (*SendGridNotifier, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   cfg.From,
	}, nil
}

// SendVerificationCode submits a single plain-text mail to SendGrid.
func (n *SendGridNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	from := mail.NewEmail("", n.from)
	to := mail.NewEmail("", email)
	body := fmt.Sprintf(mailBodyTmpl, code)
	message := mail.NewSingleEmail(from, mailSubject, to, body, body)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the client is stateless HTTP.
func (n *SendGridNotifier) Close() error {
	return nil
}
