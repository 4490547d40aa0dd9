package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	SessionRefreshSchedule = "@every 1m"
	SessionCheckSchedule   = "@every 30s"

	sessionTaskTimeout = 20 * time.Second
)

// SessionRefresher renews an access token that is about to expire.
type SessionRefresher interface {
	RefreshIfExpiring(ctx context.Context) error
}

// SessionChecker verifies that the session is still valid.
type SessionChecker interface {
	Check(ctx context.Context) error
}

type SessionRefreshTask struct {
	session SessionRefresher
}

func NewSessionRefreshTask(session SessionRefresher) *SessionRefreshTask {
	return &SessionRefreshTask{session: session}
}

func (s *SessionRefreshTask) Name() string {
	return "session_refresh"
}

func (s *SessionRefreshTask) Schedule() string {
	return SessionRefreshSchedule
}

func (s *SessionRefreshTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTaskTimeout)
	defer cancel()

	if err := s.session.RefreshIfExpiring(ctx); err != nil {
		logrus.Warnf("session refresh failed: %v", err)
	}
}

type SessionCheckTask struct {
	session SessionChecker
}

func NewSessionCheckTask(session SessionChecker) *SessionCheckTask {
	return &SessionCheckTask{session: session}
}

func (s *SessionCheckTask) Name() string {
	return "session_check"
}

func (s *SessionCheckTask) Schedule() string {
	return SessionCheckSchedule
}

func (s *SessionCheckTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTaskTimeout)
	defer cancel()

	if err := s.session.Check(ctx); err != nil {
		logrus.Warnf("session check failed: %v", err)
	}
}
