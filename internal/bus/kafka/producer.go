// Package kafka adapts franz-go to the bus contracts.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
)

// producerOpts returns the client options for durable, idempotent writes:
// every in-sync replica must acknowledge, retries back off by a fixed
// interval and a record gives up after the configured delivery timeout.
func producerOpts(cfg config.Kafka) []kgo.Opt {
	backoff := cfg.RetryBackoff

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(cfg.MessageTimeout),
		kgo.RetryBackoffFn(func(int) time.Duration { return backoff }),
	}

	if !cfg.EnableIdempotence {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	return opts
}

type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewProducer(cfg config.Kafka, logger *slog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(producerOpts(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	return &Producer{client: client, logger: logger.With("component", "producer")}, nil
}

// Publish encodes payload and waits until the broker has accepted it. Failures
// are logged with the topic and key and returned; callers decide whether the
// failure matters to them.
func (p *Producer) Publish(ctx context.Context, topic string, payload any) error {
	data, err := bus.Encode(payload)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		p.logger.Error("encoding event", "topic", topic, "error", err)

		return err
	}

	rec := &kgo.Record{Topic: topic, Value: data}
	if k, ok := payload.(bus.Keyed); ok {
		rec.Key = []byte(k.PartitionKey())
	}

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		p.logger.Error("publishing event", "topic", topic, "key", string(rec.Key), "error", err)

		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()
	p.logger.Debug("event published", "topic", topic, "key", string(rec.Key),
		"partition", rec.Partition, "offset", rec.Offset)

	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
