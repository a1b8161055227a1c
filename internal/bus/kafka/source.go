package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/config"
)

// sourceOpts subscribes one group to one topic with automatic commits off,
// so offsets only advance when the consumer loop calls Commit.
func sourceOpts(cfg config.Kafka, group, topic string) []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
}

type Source struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewSource(cfg config.Kafka, group, topic string, logger *slog.Logger) (*Source, error) {
	client, err := kgo.NewClient(sourceOpts(cfg, group, topic)...)
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer for %s: %w", topic, err)
	}

	logger.Info("subscribed to topic", "topic", topic, "group", group)

	return &Source{
		client: client,
		topic:  topic,
		logger: logger.With("component", "source", "topic", topic),
	}, nil
}

// Poll fetches at most one record. Fetch errors that arrive together with a
// record are logged rather than returned, since the record has already moved
// the fetch position and must not be dropped.
func (s *Source) Poll(ctx context.Context) (*bus.Message, error) {
	fetches := s.client.PollRecords(ctx, 1)

	if fetches.IsClientClosed() {
		return nil, bus.ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []error

	fetches.EachError(func(topic string, partition int32, err error) {
		errs = append(errs, fmt.Errorf("%s[%d]: %w", topic, partition, err))
	})

	iter := fetches.RecordIter()
	if iter.Done() {
		return nil, errors.Join(errs...)
	}

	if len(errs) > 0 {
		s.logger.Error("fetch returned errors alongside a record", "error", errors.Join(errs...))
	}

	r := iter.Next()

	return &bus.Message{
		Topic:       r.Topic,
		Partition:   r.Partition,
		Offset:      r.Offset,
		LeaderEpoch: r.LeaderEpoch,
		Key:         r.Key,
		Value:       r.Value,
		Timestamp:   r.Timestamp,
	}, nil
}

// Commit marks msg and everything before it on its partition as processed.
func (s *Source) Commit(ctx context.Context, msg *bus.Message) error {
	rec := &kgo.Record{
		Topic:       msg.Topic,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
		LeaderEpoch: msg.LeaderEpoch,
	}

	if err := s.client.CommitRecords(ctx, rec); err != nil {
		return fmt.Errorf("committing %s[%d]@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
	}

	return nil
}

// Close leaves the group and releases the client. Uncommitted offsets are
// not flushed.
func (s *Source) Close() error {
	s.client.Close()
	return nil
}
