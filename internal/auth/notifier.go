package auth

import (
	"context"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/sirupsen/logrus"
)

// ResetNotifier delivers a password reset token to the owner of the account.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user *model.User, token string) error
}

var _ ResetNotifier = (*LogResetNotifier)(nil)

// LogResetNotifier writes reset tokens to the log. Used when no mailer is configured.
type LogResetNotifier struct{}

func (LogResetNotifier) NotifyPasswordReset(_ context.Context, user *model.User, token string) error {
	logrus.WithFields(logrus.Fields{
		"user":  user.ID,
		"email": user.Email,
		"token": token,
	}).Info("password reset token")
	return nil
}
