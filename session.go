package travelexpense

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/jobs"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/sirupsen/logrus"
)

// RefreshWindow is how close to expiry a token gets refreshed.
const RefreshWindow = 5 * time.Minute

type SessionEvent string

const (
	SignedIn       SessionEvent = "SIGNED_IN"
	SignedOut      SessionEvent = "SIGNED_OUT"
	TokenRefreshed SessionEvent = "TOKEN_REFRESHED"
	UserUpdated    SessionEvent = "USER_UPDATED"
)

// SessionListener is notified of session changes, user is nil after SIGNED_OUT.
type SessionListener func(event SessionEvent, user *model.Profile)

var _ jobs.SessionRefresher = (*Session)(nil)
var _ jobs.SessionChecker = (*Session)(nil)

// Session keeps the signed in user of a Client and its token fresh.
type Session struct {
	client Client
	now    func() time.Time

	mu        sync.RWMutex
	user      *model.Profile
	expiresAt time.Time

	listenersMu sync.Mutex
	listeners   map[int]SessionListener
	nextID      int

	executor *jobs.TaskExecutor
}

func NewSession(client Client) *Session {
	return &Session{
		client:    client,
		now:       time.Now,
		listeners: make(map[int]SessionListener),
	}
}

// Start schedules the periodic token refresh and session check.
func (s *Session) Start(ctx context.Context) error {
	if s.executor != nil {
		return nil
	}

	if s.client.Token() != "" {
		if err := s.Check(ctx); err != nil {
			logrus.Warnf("initial session check failed: %v", err)
		}
	}

	s.executor = jobs.NewTaskExecutor(
		jobs.NewSessionRefreshTask(s),
		jobs.NewSessionCheckTask(s),
	)
	return s.executor.Run()
}

func (s *Session) Stop() {
	if s.executor != nil {
		s.executor.Stop()
		s.executor = nil
	}
}

func (s *Session) CurrentUser() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Subscribe registers a listener and returns the function that removes it.
func (s *Session) Subscribe(listener SessionListener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) emit(event SessionEvent, user *model.Profile) {
	s.listenersMu.Lock()
	listeners := make([]SessionListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(event, user)
	}
}

func (s *Session) signIn(session *auth.Session, event SessionEvent) {
	s.client.SetToken(session.AccessToken)

	s.mu.Lock()
	if session.User != nil {
		s.user = session.User
	}
	s.expiresAt = session.ExpiresAt
	user := s.user
	s.mu.Unlock()

	s.emit(event, user)
}

func (s *Session) signOut() {
	s.client.SetToken("")

	s.mu.Lock()
	wasSignedIn := s.user != nil
	s.user = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if wasSignedIn {
		s.emit(SignedOut, nil)
	}
}

func (s *Session) Login(ctx context.Context, email, password string) (*model.Profile, error) {
	session, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.signIn(session, SignedIn)
	return session.User, nil
}

func (s *Session) Register(ctx context.Context, input auth.RegisterInput) (*model.Profile, error) {
	session, err := s.client.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	s.signIn(session, SignedIn)
	return session.User, nil
}

// Logout revokes the token on the server, the local session is cleared even when that fails.
func (s *Session) Logout(ctx context.Context) error {
	var err error
	if s.client.Token() != "" {
		err = s.client.Logout(ctx)
		if errors.Is(err, ErrUnauthorized) {
			err = nil
		}
	}

	s.signOut()
	return err
}

func (s *Session) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*model.Profile, error) {
	profile, err := s.client.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = profile
	s.mu.Unlock()

	s.emit(UserUpdated, profile)
	return profile, nil
}

func (s *Session) ResetPassword(ctx context.Context, email string) error {
	return s.client.RequestPasswordReset(ctx, email)
}

func (s *Session) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	return s.client.ResetPassword(ctx, token, password)
}

// RefreshIfExpiring exchanges the token when it expires within RefreshWindow.
func (s *Session) RefreshIfExpiring(ctx context.Context) error {
	token := s.client.Token()
	if token == "" {
		return nil
	}

	expiresAt := s.ExpiresAt()
	if !expiresAt.IsZero() && expiresAt.Sub(s.now()) > RefreshWindow {
		return nil
	}

	session, err := s.client.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.signOut()
			return nil
		}
		return err
	}

	s.signIn(session, TokenRefreshed)
	return nil
}

// Check asks the server for the current user, the session ends when the token is rejected.
func (s *Session) Check(ctx context.Context) error {
	if s.client.Token() == "" {
		return nil
	}

	profile, err := s.client.Me(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.signOut()
			return nil
		}
		return err
	}

	s.mu.Lock()
	previous := s.user
	s.user = profile
	s.mu.Unlock()

	switch {
	case previous == nil:
		s.emit(SignedIn, profile)
	case changed(previous, profile):
		s.emit(UserUpdated, profile)
	}

	return nil
}

func changed(a, b *model.Profile) bool {
	if a.ID != b.ID || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return true
	}
	return a.Email != b.Email || a.FullName != b.FullName || a.Company != b.Company ||
		a.Position != b.Position || a.Department != b.Department || a.Role != b.Role
}
