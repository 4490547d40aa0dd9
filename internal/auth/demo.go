package auth

import (
	"context"
	"errors"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DemoLogin    = "demo"
	DemoPassword = "pass9981"
	DemoEmail    = "demo@example.com"
)

// EnsureDemoUser creates the demo account on first use and returns its id.
func (s *Service) EnsureDemoUser(ctx context.Context) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, DemoEmail)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return "", backendError(err)
	}

	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return "", err
	}

	user = &model.User{
		ID:           uuid.New().String(),
		Email:        DemoEmail,
		PasswordHash: hash,
	}
	profile := &model.Profile{
		ID:         user.ID,
		Email:      DemoEmail,
		FullName:   "田中 太郎",
		Company:    "サンプル株式会社",
		Position:   "営業部長",
		Phone:      "090-1234-5678",
		Role:       model.RoleUser,
		Department: "営業部",
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateProfile(ctx, profile)
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		// created concurrently
		existing, err := s.store.GetUserByEmail(ctx, DemoEmail)
		if err != nil {
			return "", backendError(err)
		}
		return existing.ID, nil
	}
	if err != nil {
		return "", backendError(err)
	}

	logrus.Infof("created demo user %s", user.ID)
	return user.ID, nil
}
