package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/metrics"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultExpire        = time.Hour
	DefaultResetTokenTTL = time.Hour
)

type Config struct {
	Secret        string
	Expire        time.Duration
	ResetTokenTTL time.Duration
	DemoEnabled   bool
	// ResetNotifier delivers reset tokens, the log is used when nil.
	ResetNotifier ResetNotifier
}

type RegisterInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FullName   string `json:"name"`
	Company    string `json:"company"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// ProfileUpdate is a partial profile, empty fields keep their current value.
type ProfileUpdate struct {
	FullName   string `json:"name"`
	Company    string `json:"company"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatar_url"`
}

// Session is the result of a successful login, register or refresh.
type Session struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *model.Profile `json:"user"`
}

// NewService creates a new auth Service.
func NewService(store store.Store, kv *cache.Redis, config Config) *Service {
	if config.Expire <= 0 {
		config.Expire = DefaultExpire
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = DefaultResetTokenTTL
	}
	if config.ResetNotifier == nil {
		config.ResetNotifier = LogResetNotifier{}
	}
	if config.Secret == "" {
		logrus.Warn("jwt secret is empty, tokens are signed with an empty key")
	}

	return &Service{
		store:    store,
		kv:       kv,
		config:   config,
		secret:   []byte(config.Secret),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Service authenticates users with bcrypt password hashes and HS256 access tokens.
type Service struct {
	store    store.Store
	kv       *cache.Redis
	config   Config
	secret   []byte
	validate *validator.Validate
	now      func() time.Time
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

func resetKey(token string) string {
	return "auth:reset:" + token
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(&input); err != nil {
		return nil, registerValidationError(err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: hash,
	}
	profile := &model.Profile{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   strings.TrimSpace(input.FullName),
		Company:    strings.TrimSpace(input.Company),
		Position:   strings.TrimSpace(input.Position),
		Phone:      strings.TrimSpace(input.Phone),
		Department: strings.TrimSpace(input.Department),
		Role:       model.RoleUser,
	}
	if profile.FullName == "" {
		profile.FullName = user.Email
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateProfile(ctx, profile)
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, backendError(err)
	}

	logrus.Infof("registered user %s", user.ID)

	return s.newSession(user, profile)
}

func registerValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 && errs[0].StructField() == "Password" {
		return &service.ValidationError{Field: "password", Message: "パスワードは6文字以上で入力してください"}
	}
	return &service.ValidationError{Field: "email", Message: "メールアドレスを正しく入力してください"}
}

// Login checks the credentials and issues an access token. When demo mode is
// enabled the login name "demo" signs in to the demo account.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.config.DemoEnabled && email == DemoLogin {
		if _, err := s.EnsureDemoUser(ctx); err != nil {
			return nil, err
		}
		email = DemoEmail
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		metrics.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		metrics.RecordLogin("error")
		return nil, backendError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin("success")
	return s.newSession(user, profile)
}

// Refresh exchanges a valid token for a new one and revokes the old token.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, backendError(err)
	}

	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	session, err := s.newSession(user, profile)
	if err != nil {
		return nil, err
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	return session, nil
}

// Logout revokes the token until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	return s.revoke(ctx, claims)
}

func (s *Service) revoke(ctx context.Context, claims *Claims) error {
	ttl := expiresAt(claims).Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.kv.Set(ctx, revokedKey(claims.ID), claims.UserID, ttl); err != nil {
		return backendError(err)
	}

	return nil
}

// ValidateToken parses the token and checks that it was not revoked.
func (s *Service) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.kv.Exists(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, backendError(err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// CurrentUser returns the profile of the user, built from the account when no profile row exists.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, backendError(err)
	}

	return s.profile(ctx, user)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		user, err := s.store.GetUser(ctx, userID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		if err != nil {
			return nil, backendError(err)
		}
		profile = &model.Profile{ID: user.ID, Email: user.Email, FullName: user.Email, Role: model.RoleUser}
	} else if err != nil {
		return nil, backendError(err)
	}

	merge := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	merge(&profile.FullName, update.FullName)
	merge(&profile.Company, update.Company)
	merge(&profile.Position, update.Position)
	merge(&profile.Phone, update.Phone)
	merge(&profile.Department, update.Department)
	merge(&profile.AvatarURL, update.AvatarURL)

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, backendError(err)
	}

	return profile, nil
}

// RequestPasswordReset issues a single use reset token and hands it to the
// configured ResetNotifier. Unknown emails get an empty token and no error.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		logrus.Infof("password reset requested for unknown email")
		return "", nil
	}
	if err != nil {
		return "", backendError(err)
	}

	token := uuid.New().String()
	if err := s.kv.Set(ctx, resetKey(token), user.ID, s.config.ResetTokenTTL); err != nil {
		return "", backendError(err)
	}

	if err := s.config.ResetNotifier.NotifyPasswordReset(ctx, user, token); err != nil {
		logrus.Errorf("failed to deliver password reset token for user %s: %v", user.ID, err)
		_ = s.kv.Del(ctx, resetKey(token))
		return "", backendError(err)
	}

	logrus.Infof("password reset token issued for user %s", user.ID)
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 6 {
		return &service.ValidationError{Field: "password", Message: "パスワードは6文字以上で入力してください"}
	}

	var userID string
	err := s.kv.Take(ctx, resetKey(token), &userID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return backendError(err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return backendError(err)
	}

	return nil
}

func (s *Service) profile(ctx context.Context, user *model.User) (*model.Profile, error) {
	profile, err := s.store.GetProfile(ctx, user.ID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return &model.Profile{ID: user.ID, Email: user.Email, FullName: user.Email, Role: model.RoleUser}, nil
	}
	if err != nil {
		return nil, backendError(err)
	}

	return profile, nil
}

func (s *Service) newSession(user *model.User, profile *model.Profile) (*Session, error) {
	token, claims, err := s.generateToken(user, profile.Role)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt(claims),
		User:        profile,
	}, nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func backendError(err error) error {
	return fmt.Errorf("%w: %w", service.ErrBackendUnavailable, err)
}
