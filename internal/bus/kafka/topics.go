package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MrJamesThe3rd/txflow/internal/config"
)

// EnsureTopics creates the created/validated topics with the configured
// partition count and replication factor. Topics that already exist are left
// untouched and are not reported as errors.
func EnsureTopics(ctx context.Context, cfg config.Kafka, logger *slog.Logger) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Brokers...))
	if err != nil {
		return fmt.Errorf("creating kafka admin client: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)

	topics := []string{cfg.CreatedTopic, cfg.ValidatedTopic}

	resps, err := adm.CreateTopics(ctx, cfg.TopicPartitions, cfg.TopicReplication, nil, topics...)
	if err != nil {
		return fmt.Errorf("creating topics %v: %w", topics, err)
	}

	return checkCreated(resps, logger)
}

func checkCreated(resps kadm.CreateTopicResponses, logger *slog.Logger) error {
	var errs []error

	for _, r := range resps.Sorted() {
		switch {
		case r.Err == nil:
			logger.Info("topic created", "topic", r.Topic, "partitions", r.NumPartitions, "replication", r.ReplicationFactor)
		case errors.Is(r.Err, kerr.TopicAlreadyExists):
			logger.Info("topic already exists", "topic", r.Topic)
		default:
			logger.Error("creating topic", "topic", r.Topic, "error", r.Err)
			errs = append(errs, fmt.Errorf("topic %s: %w", r.Topic, r.Err))
		}
	}

	return errors.Join(errs...)
}
