package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"remark-go/internal/config"
	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

// InitProducer creates the shared writer. kafka-go dials lazily, so this does
// not fail when brokers are down.
func InitProducer(cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	producer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// SendCommentEvent publishes event keyed by thread so one thread's events
// stay ordered within a partition.
func SendCommentEvent(ctx context.Context, topic string, event *model.CommentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal comment event: %w", err)
	}
	if err := SendRaw(ctx, topic, "thread-"+event.Comment.ThreadID, payload); err != nil {
		return err
	}

	logger.Debug("Comment event sent",
		zap.String("type", event.Type),
		zap.Int64("comment_id", event.Comment.ID),
		zap.String("topic", topic),
	)
	return nil
}

func SendRaw(ctx context.Context, topic, key string, value []byte) error {
	if producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send kafka message: %w", err)
	}
	return nil
}

// CommentEventWriter publishes comment events to one topic.
type CommentEventWriter struct {
	Topic string
}

func (w CommentEventWriter) Publish(ctx context.Context, event *model.CommentEvent) error {
	return SendCommentEvent(ctx, w.Topic, event)
}

func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
