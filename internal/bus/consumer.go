package bus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MrJamesThe3rd/txflow/internal/metrics"
)

// Handler processes one decoded event. A nil return acknowledges the message.
type Handler[T any] interface {
	Handle(ctx context.Context, event T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, event T) error

func (f HandlerFunc[T]) Handle(ctx context.Context, event T) error {
	return f(ctx, event)
}

// Option configures a Consumer.
type Option func(*options)

type options struct {
	retries      int
	retryBackoff time.Duration
}

// WithHandlerRetries re-invokes a failing handler up to n more times for the
// same message, waiting an exponentially growing interval starting at
// initial. The offset is still left uncommitted if every attempt fails.
func WithHandlerRetries(n int, initial time.Duration) Option {
	return func(o *options) {
		o.retries = max(n, 0)
		o.retryBackoff = initial
	}
}

// Consumer owns the poll, decode, dispatch and commit cycle for one topic.
// Messages are handled strictly one at a time in delivery order.
type Consumer[T any] struct {
	source  Source
	topic   string
	handler Handler[T]
	logger  *slog.Logger
	opts    options
}

func NewConsumer[T any](source Source, topic string, handler Handler[T], logger *slog.Logger, opts ...Option) *Consumer[T] {
	o := options{retryBackoff: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		source:  source,
		topic:   topic,
		handler: handler,
		logger:  logger.With("topic", topic),
		opts:    o,
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Run polls until ctx is cancelled. The message in flight when the signal
// arrives is allowed to finish; the source is closed before Run returns.
func (c *Consumer[T]) Run(ctx context.Context) error {
	defer c.close()

	c.logger.Info("consumer started")

	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return nil
		}

		msg, err := c.source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping")
				return nil
			}

			if errors.Is(err, ErrClosed) {
				c.logger.Warn("source closed, consumer stopping")
				return nil
			}

			metrics.PollErrors.WithLabelValues(c.topic).Inc()
			c.logger.Error("polling topic", "error", err)

			continue
		}

		if msg == nil || len(msg.Value) == 0 {
			continue
		}

		c.process(context.WithoutCancel(ctx), msg)
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *Message) {
	logger := c.logger.With(
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)

	metrics.MessagesConsumed.WithLabelValues(c.topic).Inc()
	logger.Debug("message received", "payload", string(msg.Value))

	event, err := Decode[T](msg.Value)

	switch {
	case errors.Is(err, ErrEmptyPayload):
		logger.Warn("discarding empty message")
		metrics.MessagesDiscarded.WithLabelValues(c.topic, "empty").Inc()
		c.commit(ctx, msg, logger)

		return
	case err != nil:
		logger.Error("discarding malformed message", "error", err, "payload", string(msg.Value))
		metrics.MessagesDiscarded.WithLabelValues(c.topic, "malformed").Inc()
		c.commit(ctx, msg, logger)

		return
	}

	start := time.Now()
	err = c.handle(ctx, *event)
	metrics.HandlerDuration.WithLabelValues(c.topic).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.HandlerFailures.WithLabelValues(c.topic).Inc()
		logger.Error("handler failed, offset left uncommitted; message is redelivered only after a restart or rebalance",
			"error", err, "payload", string(msg.Value))

		return
	}

	c.commit(ctx, msg, logger)
}

func (c *Consumer[T]) handle(ctx context.Context, event T) error {
	if c.opts.retries == 0 {
		return c.handler.Handle(ctx, event)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.retryBackoff
	b.MaxElapsedTime = 0

	attempt := 0

	return backoff.Retry(func() error {
		attempt++

		err := c.handler.Handle(ctx, event)
		if err != nil && attempt <= c.opts.retries {
			c.logger.Warn("handler failed, retrying same message", "error", err, "attempt", attempt)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.retries)), ctx))
}

// commit outlives ctx's cancellation, bounded by its own timeout.
func (c *Consumer[T]) commit(ctx context.Context, msg *Message, logger *slog.Logger) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := c.source.Commit(commitCtx, msg); err != nil {
		logger.Error("committing offset, message may be redelivered", "error", err)
		return
	}

	metrics.MessagesCommitted.WithLabelValues(c.topic).Inc()
	logger.Debug("offset committed")
}

func (c *Consumer[T]) close() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while closing source", "panic", r)
		}
	}()

	if err := c.source.Close(); err != nil {
		c.logger.Error("closing source", "error", err)
		return
	}

	c.logger.Info("consumer closed")
}
