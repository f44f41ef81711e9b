package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes transition events to a Kafka topic for downstream
// notification consumers. Produces are async; delivery failures are counted
// and logged, never surfaced to the transition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	onFail func()
}

// NewKafkaSink connects to the brokers and makes sure the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string, logger *slog.Logger, onFail func()) (*KafkaSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, logger: logger, onFail: onFail}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	_, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return err
	}
	return nil
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal transition event failed",
			slog.String("error", err.Error()))
		if s.onFail != nil {
			s.onFail()
		}
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.RequestID.String()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("produce transition event failed",
				slog.String("request_id", event.RequestID.String()),
				slog.String("error", err.Error()))
			if s.onFail != nil {
				s.onFail()
			}
		}
	})
}

// Close flushes outstanding produces and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
