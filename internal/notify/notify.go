// Package notify delivers verification codes to users out-of-band.
//
// Direct backends (smtp, sendgrid) send the mail inline with the request.
// Queue backends (rabbitmq, pubsub) publish a mail job to a broker and
// treat the broker ack as the delivery result; the mailworker command
// consumes the queue and performs the actual send.
package notify

import (
	"context"
	"fmt"

	"github.com/identia/apiserver/config"
)

const (
	mailSubject  = "Verify Your Email"
	mailBodyTmpl = "Your verification code is: %s"
)

// Notifier delivers a verification code to an email address. A returned
// error is the caller's signal to roll the registration back; it must
// never be raised as a panic.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	Close() error
}

// New selects a notifier backend from config.
func New(ctx context.Context, cfg config.Config) (Notifier, error) {
	switch cfg.Mail.Backend {
	case "smtp", "sendgrid":
		return NewDirect(cfg.Mail)
	case "rabbitmq", "pubsub":
		broker, err := NewBroker(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewQueueNotifier(broker), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Mail.Backend)
	}
}

// NewDirect constructs a backend that sends mail itself, with no broker
// in between. Used for the direct server backends and by the mailworker.
func NewDirect(cfg config.MailConfig) (Notifier, error) {
	switch cfg.Backend {
	case "smtp":
		return NewSMTPNotifier(cfg), nil
	case "sendgrid":
		return NewSendGridNotifier(cfg)
	default:
		return nil, fmt.Errorf("mail backend %q cannot deliver directly", cfg.Backend)
	}
}

// NewBroker constructs the queue transport named by the mail backend.
func NewBroker(ctx context.Context, cfg config.Config) (Broker, error) {
	switch cfg.Mail.Backend {
	case "rabbitmq":
		return NewRabbitBroker(cfg.RabbitMQ, cfg.Mail.Queue)
	case "pubsub":
		return NewPubSubBroker(ctx, cfg.PubSub, cfg.Mail.Queue)
	default:
		return nil, fmt.Errorf("mail backend %q is not queue-based", cfg.Mail.Backend)
	}
}
