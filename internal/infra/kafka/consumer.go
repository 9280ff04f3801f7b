package kafka

import (
	"context"
	"encoding/json"
	"time"

	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CommentEventHandler handles one decoded event. An error is logged and the
// message is still committed.
type CommentEventHandler func(ctx context.Context, event *model.CommentEvent) error

// StartCommentEventConsumer reads comment events until ctx is cancelled.
func StartCommentEventConsumer(ctx context.Context, brokers []string, topic, groupID string, handler CommentEventHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close kafka consumer", zap.Error(err))
		}
		logger.Info("Kafka comment event consumer stopped")
	}()

	logger.Info("Kafka comment event consumer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
	)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var event model.CommentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("Failed to unmarshal comment event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			continue
		}

		if err := handler(ctx, &event); err != nil {
			logger.Error("Failed to handle comment event",
				zap.String("type", event.Type),
				zap.Int64("comment_id", event.Comment.ID),
				zap.Error(err),
			)
		}
	}
}
