package queue

import (
	"context"
	"fmt"

	"github.com/emrgen/travelexpense/internal/model"
	redis "github.com/redis/go-redis/v9"
)

func notificationChannel(userID string) string {
	return "notification:" + userID
}

// NotificationQueue fans out committed notifications to live subscribers.
type NotificationQueue interface {
	// Publish appends a notification to the queue.
	Publish(ctx context.Context, notification *model.Notification) error
	// Subscribe streams the notifications of a user until ctx is done.
	Subscribe(ctx context.Context, userID string) (<-chan *model.Notification, error)
	Close() error
}

type Options struct {
	Driver       string
	Redis        *redis.Client
	KafkaBrokers []string
	KafkaTopic   string
}

// New returns the queue selected by opts.Driver.
func New(opts Options) (NotificationQueue, error) {
	switch opts.Driver {
	case "", "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis queue requires a redis client")
		}
		return NewRedisQueue(opts.Redis), nil
	case "kafka":
		return NewKafkaQueue(opts.KafkaBrokers, opts.KafkaTopic), nil
	}

	return nil, fmt.Errorf("unknown queue driver: %s", opts.Driver)
}
