package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// mailJob is the wire form of a queued verification mail.
type mailJob struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Broker is the queue transport behind a QueueNotifier. Publish returns
// the broker-assigned message id once the broker has accepted the job.
type Broker interface {
	Publish(ctx context.Context, body []byte) (string, error)
	Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
	Close() error
}

// QueueNotifier hands verification mail to a broker. The broker ack is
// the synchronous delivery boundary: a failed publish is a delivery
// failure, while the actual send happens in the mailworker.
type QueueNotifier struct {
	broker Broker
}

// NewQueueNotifier wraps a broker as a Notifier.
func NewQueueNotifier(broker Broker) *QueueNotifier {
	return &QueueNotifier{broker: broker}
}

// SendVerificationCode publishes a mail job and waits for the broker ack.
func (n *QueueNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	body, err := json.Marshal(mailJob{Email: email, Code: code})
	if err != nil {
		return err
	}
	if _, err := n.broker.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish mail job: %w", err)
	}
	return nil
}

// Close closes the underlying broker.
func (n *QueueNotifier) Close() error {
	return n.broker.Close()
}

// RunWorker consumes mail jobs from the broker and delivers each one via
// the given direct notifier. A failed send is nacked back to the queue.
// It blocks until ctx is cancelled or the broker fails.
func RunWorker(ctx context.Context, broker Broker, delivery Notifier, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return broker.Consume(ctx, func(ctx context.Context, body []byte) error {
		var job mailJob
		if err := json.Unmarshal(body, &job); err != nil {
			// Malformed jobs would requeue forever; drop them.
			logger.Error("discarding malformed mail job", "error", err)
			return nil
		}
		if err := delivery.SendVerificationCode(ctx, job.Email, job.Code); err != nil {
			logger.Error("mail delivery failed", "email", job.Email, "error", err)
			return err
		}
		logger.Info("verification mail sent", "email", job.Email)
		return nil
	})
}
