// Package memory provides a single-partition, in-process broker implementing
// bus.Publisher and bus.Source. Committed offsets are kept per consumer group,
// so dropping a Source and subscribing again behaves like a process restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
)

type groupTopic struct {
	group string
	topic string
}

type Broker struct {
	mu        sync.Mutex
	logs      map[string][]bus.Message
	committed map[groupTopic]int64
	commits   map[groupTopic]int
	pollErr   map[groupTopic][]error
	publishFn func(topic string) error
	wake      chan struct{}
}

func NewBroker() *Broker {
	return &Broker{
		logs:      make(map[string][]bus.Message),
		committed: make(map[groupTopic]int64),
		commits:   make(map[groupTopic]int),
		pollErr:   make(map[groupTopic][]error),
		wake:      make(chan struct{}),
	}
}

// Publish encodes payload and appends it to topic.
func (b *Broker) Publish(_ context.Context, topic string, payload any) error {
	b.mu.Lock()
	fail := b.publishFn
	b.mu.Unlock()

	if fail != nil {
		if err := fail(topic); err != nil {
			return err
		}
	}

	data, err := bus.Encode(payload)
	if err != nil {
		return err
	}

	var key []byte
	if k, ok := payload.(bus.Keyed); ok {
		key = []byte(k.PartitionKey())
	}

	b.append(topic, key, data)

	return nil
}

// Append writes raw bytes to topic, bypassing the codec.
func (b *Broker) Append(topic string, value []byte) {
	b.append(topic, nil, value)
}

// FailPublish makes Publish return the error produced by fn, if any.
func (b *Broker) FailPublish(fn func(topic string) error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.publishFn = fn
}

// FailNextPoll queues err to be returned by group's next Poll on topic.
func (b *Broker) FailNextPoll(group, topic string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := groupTopic{group, topic}
	b.pollErr[key] = append(b.pollErr[key], err)
}

// Messages returns a copy of everything written to topic.
func (b *Broker) Messages(topic string) []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]bus.Message, len(b.logs[topic]))
	copy(out, b.logs[topic])

	return out
}

// Committed returns the next offset group will read from topic after a restart.
func (b *Broker) Committed(group, topic string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.committed[groupTopic{group, topic}]
}

// Commits returns how many commit calls group issued on topic.
func (b *Broker) Commits(group, topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.commits[groupTopic{group, topic}]
}

// Subscribe opens a source for group on topic positioned at the last committed offset.
func (b *Broker) Subscribe(group, topic string) *Source {
	b.mu.Lock()
	defer b.mu.Unlock()

	return &Source{
		broker: b,
		key:    groupTopic{group, topic},
		pos:    b.committed[groupTopic{group, topic}],
	}
}

func (b *Broker) append(topic string, key, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logs[topic] = append(b.logs[topic], bus.Message{
		Topic:     topic,
		Offset:    int64(len(b.logs[topic])),
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UTC(),
	})

	close(b.wake)
	b.wake = make(chan struct{})
}

// Source reads one topic for one group. Its read position advances on every
// Poll regardless of commits, like a real consumer's fetch position.
type Source struct {
	broker *Broker
	key    groupTopic
	pos    int64
	closed bool
}

func (s *Source) Poll(ctx context.Context) (*bus.Message, error) {
	for {
		b := s.broker

		b.mu.Lock()
		if s.closed {
			b.mu.Unlock()
			return nil, bus.ErrClosed
		}

		if errs := b.pollErr[s.key]; len(errs) > 0 {
			b.pollErr[s.key] = errs[1:]
			b.mu.Unlock()

			return nil, errs[0]
		}

		log := b.logs[s.key.topic]
		if s.pos < int64(len(log)) {
			msg := log[s.pos]
			s.pos++
			b.mu.Unlock()

			return &msg, nil
		}

		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

func (s *Source) Commit(_ context.Context, msg *bus.Message) error {
	b := s.broker

	b.mu.Lock()
	defer b.mu.Unlock()

	b.committed[s.key] = msg.Offset + 1
	b.commits[s.key]++

	return nil
}

func (s *Source) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	s.closed = true

	return nil
}
