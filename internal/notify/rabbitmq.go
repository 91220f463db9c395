package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/identia/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitBroker publishes and consumes mail jobs on a single RabbitMQ queue.
type RabbitBroker struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queue           string
	queueDurable    bool
	queueAutoDelete bool
}

// NewRabbitBroker dials RabbitMQ and binds the broker to the named queue.
func NewRabbitBroker(cfg config.RabbitMQConfig, queue string) (*RabbitBroker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, errors.New("mail queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitBroker{
		conn:            conn,
		channel:         ch,
		queue:           queue,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
	}, nil
}

// Publish sends a mail job to the queue and returns its message id.
func (b *RabbitBroker) Publish(ctx context.Context, body []byte) (string, error) {
	if _, err := b.declareQueue(); err != nil {
		return "", err
	}

	messageID := newMessageID()
	err := b.channel.PublishWithContext(ctx, "", b.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   messageID,
		Body:        body,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Consume feeds queued mail jobs to the handler, acking on success and
// requeueing on error, until ctx is cancelled.
func (b *RabbitBroker) Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	if _, err := b.declareQueue(); err != nil {
		return err
	}

	consumerTag := fmt.Sprintf("mailworker-%s", newMessageID())
	deliveries, err := b.channel.Consume(b.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = b.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, delivery.Body); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the underlying channel and connection.
func (b *RabbitBroker) Close() error {
	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func (b *RabbitBroker) declareQueue() (amqp.Queue, error) {
	return b.channel.QueueDeclare(
		b.queue,
		b.queueDurable,
		b.queueAutoDelete,
		false,
		false,
		nil,
	)
}

func newMessageID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
