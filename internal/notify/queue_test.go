package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeBroker struct {
	published  [][]byte
	publishErr error
}

func (b *fakeBroker) Publish(ctx context.Context, body []byte) (string, error) {
	if b.publishErr != nil {
		return "", b.publishErr
	}
	b.published = append(b.published, body)
	return "msg-1", nil
}

func (b *fakeBroker) Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	for _, body := range b.published {
		if err := handler(ctx, body); err != nil {
			return err
		}
	}
	return nil
}

func (b *fakeBroker) Close() error { return nil }

type fakeDelivery struct {
	fail  bool
	sent  []string
	codes []string
}

func (d *fakeDelivery) SendVerificationCode(ctx context.Context, email, code string) error {
	if d.fail {
		return errors.New("smtp down")
	}
	d.sent = append(d.sent, email)
	d.codes = append(d.codes, code)
	return nil
}

func (d *fakeDelivery) Close() error { return nil }

func TestQueueNotifierPublishesJob(t *testing.T) {
	broker := &fakeBroker{}
	notifier := NewQueueNotifier(broker)

	if err := notifier.SendVerificationCode(context.Background(), "a@x.com", "123456"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	if len(broker.published) != 1 {
		t.Fatalf("expected one published job, got %d", len(broker.published))
	}

	var job mailJob
	if err := json.Unmarshal(broker.published[0], &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Email != "a@x.com" || job.Code != "123456" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestQueueNotifierPublishFailure(t *testing.T) {
	broker := &fakeBroker{publishErr: errors.New("broker down")}
	notifier := NewQueueNotifier(broker)

	if err := notifier.SendVerificationCode(context.Background(), "a@x.com", "123456"); err == nil {
		t.Fatalf("expected publish failure to surface")
	}
}

func TestRunWorkerDeliversJobs(t *testing.T) {
	broker := &fakeBroker{}
	notifier := NewQueueNotifier(broker)
	_ = notifier.SendVerificationCode(context.Background(), "a@x.com", "123456")
	_ = notifier.SendVerificationCode(context.Background(), "b@x.com", "654321")

	delivery := &fakeDelivery{}
	if err := RunWorker(context.Background(), broker, delivery, nil); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}
	if len(delivery.sent) != 2 || delivery.sent[0] != "a@x.com" || delivery.sent[1] != "b@x.com" {
		t.Fatalf("unexpected deliveries: %v", delivery.sent)
	}
	if delivery.codes[0] != "123456" || delivery.codes[1] != "654321" {
		t.Fatalf("unexpected codes: %v", delivery.codes)
	}
}

func TestRunWorkerPropagatesSendFailure(t *testing.T) {
	broker := &fakeBroker{}
	notifier := NewQueueNotifier(broker)
	_ = notifier.SendVerificationCode(context.Background(), "a@x.com", "123456")

	if err := RunWorker(context.Background(), broker, &fakeDelivery{fail: true}, nil); err == nil {
		t.Fatalf("expected send failure to surface for requeue")
	}
}

func TestRunWorkerDropsMalformedJobs(t *testing.T) {
	broker := &fakeBroker{published: [][]byte{[]byte("not json")}}

	delivery := &fakeDelivery{}
	if err := RunWorker(context.Background(), broker, delivery, nil); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}
	if len(delivery.sent) != 0 {
		t.Fatalf("malformed job must not be delivered")
	}
}
