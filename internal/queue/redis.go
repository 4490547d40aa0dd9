package queue

import (
	"context"
	"encoding/json"

	"github.com/emrgen/travelexpense/internal/model"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var _ NotificationQueue = (*RedisQueue)(nil)

// RedisQueue publishes notifications on a per user pub/sub channel.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Publish(ctx context.Context, notification *model.Notification) error {
	return q.client.Publish(ctx, notificationChannel(notification.UserID), notification).Err()
}

func (q *RedisQueue) Subscribe(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	sub := q.client.Subscribe(ctx, notificationChannel(userID))
	// wait for the subscription to be confirmed before returning
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan *model.Notification)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var notification model.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
					logrus.Warnf("dropping malformed notification on %s: %v", msg.Channel, err)
					continue
				}

				select {
				case out <- &notification:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *RedisQueue) Close() error {
	return nil
}
