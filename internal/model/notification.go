package model

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID    string           `gorm:"uuid;not null;index" json:"user_id"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"not null" json:"message"`
	Type      NotificationType `gorm:"not null" json:"type"`
	IsRead    bool             `gorm:"not null" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) MarshalBinary() ([]byte, error) {
	return json.Marshal(n)
}
