package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var _ NotificationQueue = (*KafkaQueue)(nil)

// KafkaQueue publishes notifications keyed by user id. Every subscriber reads
// the topic with its own consumer group and keeps the messages of its user.
type KafkaQueue struct {
	brokers []string
	topic   string
	writer  *kafkago.Writer
}

func NewKafkaQueue(brokers []string, topic string) *KafkaQueue {
	return &KafkaQueue{
		brokers: brokers,
		topic:   topic,
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireOne,
		},
	}
}

func (q *KafkaQueue) Publish(ctx context.Context, notification *model.Notification) error {
	value, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return q.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(notification.UserID),
		Value: value,
	})
}

func (q *KafkaQueue) Subscribe(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     q.brokers,
		Topic:       q.topic,
		GroupID:     "notification-stream-" + uuid.New().String(),
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})

	out := make(chan *model.Notification)
	go func() {
		defer close(out)
		defer reader.Close()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logrus.Warnf("notification stream for %s stopped: %v", userID, err)
				}
				return
			}

			if string(msg.Key) != userID {
				continue
			}

			var notification model.Notification
			if err := json.Unmarshal(msg.Value, &notification); err != nil {
				logrus.Warnf("dropping malformed notification at offset %d: %v", msg.Offset, err)
				continue
			}

			select {
			case out <- &notification:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}
