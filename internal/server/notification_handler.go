package server

import (
	"io"
	"strconv"

	"github.com/emrgen/travelexpense/internal/module"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Create(c *gin.Context) {
	var input service.NotificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	notification, err := h.notifications.Create(c.Request.Context(), module.GetUserID(c), input)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, notification)
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := h.notifications.List(c.Request.Context(), module.GetUserID(c), limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), module.GetUserID(c), c.Param("id")); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}

// Stream pushes new notifications as server-sent events until the client leaves.
func (h *NotificationHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	ch, err := h.notifications.Subscribe(ctx, module.GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case notification, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("notification", notification)
			return true
		}
	})
}
