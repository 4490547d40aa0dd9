package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, demo bool) (*Service, store.Store) {
	st := store.NewGormStore(tester.NewDB(t))
	client, _ := tester.Redis(t)

	s := NewService(st, cache.NewRedis(client), Config{
		Secret:      "test-secret-key",
		Expire:      time.Hour,
		DemoEnabled: demo,
	})
	return s, st
}

func register(t *testing.T, s *Service) *Session {
	session, err := s.Register(context.Background(), RegisterInput{
		Email:      " Tanaka@Example.com ",
		Password:   "password123",
		FullName:   "田中 太郎",
		Company:    "Acme",
		Position:   "部長",
		Department: "営業部",
	})
	require.NoError(t, err)
	return session
}

func TestService_RegisterAndLogin(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	session := register(t, s)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "tanaka@example.com", session.User.Email)
	assert.Equal(t, "Acme", session.User.Company)

	session, err := s.Login(ctx, "tanaka@example.com", "password123")
	require.NoError(t, err)

	claims, err := s.ValidateToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	_, err = s.Login(ctx, "tanaka@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Register(ctx, RegisterInput{Email: "tanaka@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_RegisterValidation(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password123"})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = s.Register(ctx, RegisterInput{Email: "a@example.com", Password: "123"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestService_LogoutRevokes(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	session := register(t, s)
	require.NoError(t, s.Logout(ctx, session.AccessToken))

	_, err := s.ValidateToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestService_Refresh(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	session := register(t, s)
	refreshed, err := s.Refresh(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)

	_, err = s.ValidateToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = s.ValidateToken(ctx, refreshed.AccessToken)
	assert.NoError(t, err)
}

func TestService_ExpiredToken(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	session := register(t, s)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.ValidateToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_UpdateProfile(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	session := register(t, s)
	profile, err := s.UpdateProfile(ctx, session.User.ID, ProfileUpdate{Phone: "090-0000-0000", Company: " "})
	require.NoError(t, err)
	assert.Equal(t, "090-0000-0000", profile.Phone)
	assert.Equal(t, "Acme", profile.Company)
	assert.Equal(t, "田中 太郎", profile.FullName)

	current, err := s.CurrentUser(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "090-0000-0000", current.Phone)

	_, err = s.CurrentUser(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestService_PasswordReset(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	register(t, s)

	token, err := s.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = s.RequestPasswordReset(ctx, "tanaka@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, s.ResetPassword(ctx, token, "newpassword"))
	assert.ErrorIs(t, s.ResetPassword(ctx, token, "again123"), ErrResetTokenInvalid)

	_, err = s.Login(ctx, "tanaka@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "tanaka@example.com", "newpassword")
	assert.NoError(t, err)
}

type recordingNotifier struct {
	tokens map[string]string
	err    error
}

func (n *recordingNotifier) NotifyPasswordReset(_ context.Context, user *model.User, token string) error {
	if n.err != nil {
		return n.err
	}
	if n.tokens == nil {
		n.tokens = map[string]string{}
	}
	n.tokens[user.Email] = token
	return nil
}

func TestService_PasswordResetDelivery(t *testing.T) {
	ctx := context.Background()
	client, _ := tester.Redis(t)
	notifier := &recordingNotifier{}
	s := NewService(store.NewGormStore(tester.NewDB(t)), cache.NewRedis(client), Config{
		Secret:        "test-secret-key",
		ResetNotifier: notifier,
	})

	register(t, s)

	_, err := s.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, notifier.tokens)

	token, err := s.RequestPasswordReset(ctx, "tanaka@example.com")
	require.NoError(t, err)
	assert.Equal(t, token, notifier.tokens["tanaka@example.com"])

	require.NoError(t, s.ResetPassword(ctx, notifier.tokens["tanaka@example.com"], "newpassword"))

	// undelivered tokens are not left redeemable
	notifier.err = errors.New("smtp down")
	token, err = s.RequestPasswordReset(ctx, "tanaka@example.com")
	assert.ErrorIs(t, err, service.ErrBackendUnavailable)
	assert.Empty(t, token)
}

func TestService_DemoLogin(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newTestService(t, false)
	_, err := disabled.Login(ctx, DemoLogin, DemoPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	s, _ := newTestService(t, true)
	session, err := s.Login(ctx, DemoLogin, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "田中 太郎", session.User.FullName)
	assert.Equal(t, "サンプル株式会社", session.User.Company)

	again, err := s.Login(ctx, DemoLogin, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)

	_, err = s.Login(ctx, DemoLogin, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
