package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// ErrSkip tells the consumer to commit a message the handler cannot process,
// such as one that does not decode.
var ErrSkip = errors.New("skip message")

// HandlerFunc receives the raw event payload with the producer's trace
// context already attached to ctx.
type HandlerFunc func(ctx context.Context, payload []byte) error

type Consumer struct {
	reader *kafka.Reader
	cfg    kafka.ReaderConfig
	logger *zap.Logger
}

type ConsumerOption func(*kafka.ReaderConfig)

// WithStartOffset picks where a new consumer group starts reading,
// kafka.FirstOffset or kafka.LastOffset.
func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader: kafka.NewReader(cfg),
		cfg:    cfg,
		logger: logger.With(zap.String("topic", topic), zap.String("group", groupID)),
	}
}

// Consume runs handler for each message until ctx is done or handler fails.
// A message is committed only after its handler returns nil or ErrSkip.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch from %s: %w", c.cfg.Topic, err)
		}

		err = c.handle(ctx, &msg, handler)
		switch {
		case errors.Is(err, ErrSkip):
			c.logger.Warn("skipping message",
				zap.Error(err),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		case err != nil:
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *kafka.Message, handler HandlerFunc) error {
	ctx, span := consumerTracer.Start(extractTrace(ctx, msg), "process "+c.cfg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(c.attributes(msg)...),
	)
	defer span.End()

	err := handler(ctx, msg.Value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Consumer) attributes(msg *kafka.Message) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.MessagingSystemKafka,
		semconv.MessagingOperationName("process"),
		semconv.MessagingOperationTypeDeliver,
		semconv.MessagingDestinationName(c.cfg.Topic),
		semconv.MessagingKafkaConsumerGroup(c.cfg.GroupID),
		semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
		semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
		semconv.MessagingKafkaMessageKey(string(msg.Key)),
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
