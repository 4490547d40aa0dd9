package queue

import (
	"context"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisQueue_PublishSubscribe(t *testing.T) {
	client, _ := tester.Redis(t)
	q := NewRedisQueue(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := q.Subscribe(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, &model.Notification{ID: "n0", UserID: "u2", Title: "other"}))
	require.NoError(t, q.Publish(ctx, &model.Notification{
		ID:      "n1",
		UserID:  "u1",
		Title:   "経費申請が作成されました",
		Message: "交通費の申請が正常に作成されました。",
		Type:    model.NotificationTypeSuccess,
	}))

	select {
	case n := <-stream:
		assert.Equal(t, "n1", n.ID)
		assert.Equal(t, model.NotificationTypeSuccess, n.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	cancel()
	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
}

func TestNew(t *testing.T) {
	client, _ := tester.Redis(t)

	q, err := New(Options{Driver: "redis", Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisQueue{}, q)

	q, err = New(Options{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "notifications"})
	require.NoError(t, err)
	assert.IsType(t, &KafkaQueue{}, q)
	require.NoError(t, q.Close())

	_, err = New(Options{Driver: "nats"})
	assert.Error(t, err)

	_, err = New(Options{Driver: "redis"})
	assert.Error(t, err)
}
