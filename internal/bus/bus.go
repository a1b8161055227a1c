// Package bus defines the publish contract and the durable consumer loop shared
// by every service of the pipeline. Broker specifics live in the kafka and
// memory subpackages.
package bus

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClosed is returned by a Source whose underlying client was closed.
	ErrClosed = errors.New("bus: source closed")

	// ErrMalformedPayload marks a body that cannot be decoded into the expected event.
	ErrMalformedPayload = errors.New("bus: malformed payload")

	// ErrEmptyPayload marks a body that decodes to nothing (JSON null).
	ErrEmptyPayload = errors.New("bus: empty payload")
)

// Message is a single record read from a topic partition.
type Message struct {
	Topic       string
	Partition   int32
	Offset      int64
	LeaderEpoch int32
	Key         []byte
	Value       []byte
	Timestamp   time.Time
}

// Publisher writes a payload to a topic. Implementations serialise the payload
// with Encode and return only after the broker has accepted the write.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Source is a subscription to exactly one topic within a consumer group.
//
// Poll blocks until a record is available or ctx is done. A nil message with a
// nil error means nothing usable was fetched. Commit durably acknowledges msg
// and every earlier offset of its partition for the group.
type Source interface {
	Poll(ctx context.Context) (*Message, error)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}

// Keyed is implemented by payloads that choose their own partition key.
type Keyed interface {
	PartitionKey() string
}
