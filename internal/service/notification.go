package service

import (
	"context"
	"strings"

	"github.com/emrgen/travelexpense/internal/metrics"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/queue"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/sirupsen/logrus"
)

const DefaultNotificationLimit = 10

type NotificationInput struct {
	Title   string                 `json:"title" validate:"required"`
	Message string                 `json:"message" validate:"required"`
	Type    model.NotificationType `json:"type" validate:"omitempty,oneof=info success warning error"`
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store store.Store, queue queue.NotificationQueue) *NotificationService {
	return &NotificationService{
		store: store,
		queue: queue,
	}
}

type NotificationService struct {
	store store.Store
	queue queue.NotificationQueue
}

func (s *NotificationService) Create(ctx context.Context, userID string, input NotificationInput) (*model.Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = model.NotificationTypeInfo
	}

	notification := newNotification(userID, input.Title, input.Message, input.Type)
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		return nil, backendError(ctx, err)
	}

	publishNotification(ctx, s.queue, notification)

	return notification, nil
}

// List returns the newest notifications of a user, limit <= 0 means the default.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	notifications, err := s.store.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, backendError(ctx, err)
	}

	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return backendError(ctx, s.store.MarkNotificationRead(ctx, userID, id))
}

// Subscribe streams new notifications of a user until ctx is done.
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	if s.queue == nil {
		return nil, ErrBackendUnavailable
	}

	ch, err := s.queue.Subscribe(ctx, userID)
	if err != nil {
		return nil, backendError(ctx, err)
	}

	return ch, nil
}

// publishNotification pushes a committed notification to live subscribers.
// Subscribers that miss it still see it in the next List.
func publishNotification(ctx context.Context, q queue.NotificationQueue, notification *model.Notification) {
	if q == nil {
		return
	}

	err := q.Publish(context.WithoutCancel(ctx), notification)
	metrics.RecordNotificationPublished(err == nil)
	if err != nil {
		logrus.Warnf("failed to publish notification %s: %v", notification.ID, err)
	}
}
