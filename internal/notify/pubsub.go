package notify

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/identia/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubBroker publishes and consumes mail jobs on a Google Cloud
// Pub/Sub topic.
type PubSubBroker struct {
	client             *pubsub.Client
	topic              string
	subscriptionSuffix string
}

// NewPubSubBroker constructs a Pub/Sub broker bound to the named topic.
func NewPubSubBroker(ctx context.Context, cfg config.PubSubConfig, topic string) (*PubSubBroker, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("mail topic name is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}

	return &PubSubBroker{
		client:             client,
		topic:              topic,
		subscriptionSuffix: suffix,
	}, nil
}

// Publish sends a mail job to the topic and waits for the server ack.
func (b *PubSubBroker) Publish(ctx context.Context, body []byte) (string, error) {
	topic, err := b.ensureTopic(ctx)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: body})
	return result.Get(ctx)
}

// Consume feeds mail jobs to the handler, acking on success and nacking
// on error, until ctx is cancelled.
func (b *PubSubBroker) Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	topic, err := b.ensureTopic(ctx)
	if err != nil {
		return err
	}

	sub, err := b.ensureSubscription(ctx, topic)
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := handler(ctx, msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the underlying Pub/Sub client.
func (b *PubSubBroker) Close() error {
	return b.client.Close()
}

func (b *PubSubBroker) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	topic := b.client.Topic(b.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return b.client.CreateTopic(ctx, b.topic)
	}
	return topic, nil
}

func (b *PubSubBroker) ensureSubscription(ctx context.Context, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	name := b.topic + b.subscriptionSuffix
	sub := b.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return b.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{Topic: topic})
	}
	return sub, nil
}
