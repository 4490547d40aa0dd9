package travelexpense

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *eventRecorder) listen(event SessionEvent, user *model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Events() []SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionEvent(nil), r.events...)
}

func TestSession_LoginLogout(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	ctx := context.Background()

	session := NewSession(NewClient(srv.URL))
	recorder := &eventRecorder{}
	unsubscribe := session.Subscribe(recorder.listen)

	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NoError(t, session.Logout(ctx))

	user, err := session.Login(ctx, "kato@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "加藤 美咲", user.FullName)
	assert.Equal(t, user, session.CurrentUser())

	unsubscribe()
	require.NoError(t, session.Logout(ctx))
	assert.Nil(t, session.CurrentUser())

	assert.Equal(t, []SessionEvent{SignedIn, SignedOut, SignedIn}, recorder.Events())
}

func TestSession_UpdateProfile(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	ctx := context.Background()

	session := NewSession(NewClient(srv.URL))
	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)

	recorder := &eventRecorder{}
	session.Subscribe(recorder.listen)

	profile, err := session.UpdateProfile(ctx, auth.ProfileUpdate{Department: "経理部"})
	require.NoError(t, err)
	assert.Equal(t, "経理部", profile.Department)
	// untouched fields keep their value
	assert.Equal(t, "Acme", profile.Company)
	assert.Equal(t, []SessionEvent{UserUpdated}, recorder.Events())
}

func TestSession_RefreshIfExpiring(t *testing.T) {
	srv := newTestBackend(t, 2*time.Minute)
	ctx := context.Background()

	client := NewClient(srv.URL)
	session := NewSession(client)
	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)
	oldToken := client.Token()

	recorder := &eventRecorder{}
	session.Subscribe(recorder.listen)

	require.NoError(t, session.RefreshIfExpiring(ctx))
	assert.NotEqual(t, oldToken, client.Token())
	assert.Equal(t, []SessionEvent{TokenRefreshed}, recorder.Events())

	// the old token was revoked by the refresh
	stale := NewClient(srv.URL)
	stale.SetToken(oldToken)
	_, err = stale.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSession_RefreshSkipsFreshToken(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	ctx := context.Background()

	client := NewClient(srv.URL)
	session := NewSession(client)
	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)
	token := client.Token()

	require.NoError(t, session.RefreshIfExpiring(ctx))
	assert.Equal(t, token, client.Token())
}

func TestSession_Check(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	ctx := context.Background()

	client := NewClient(srv.URL)
	session := NewSession(client)
	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)

	recorder := &eventRecorder{}
	session.Subscribe(recorder.listen)

	// nothing changed
	require.NoError(t, session.Check(ctx))
	assert.Empty(t, recorder.Events())

	// the profile changes through another client sharing the token
	other := NewClient(srv.URL)
	other.SetToken(client.Token())
	_, err = other.UpdateProfile(ctx, auth.ProfileUpdate{Position: "一般社員"})
	require.NoError(t, err)

	require.NoError(t, session.Check(ctx))
	assert.Equal(t, "一般社員", session.CurrentUser().Position)

	// the token is revoked elsewhere
	require.NoError(t, other.Logout(ctx))
	require.NoError(t, session.Check(ctx))
	assert.Nil(t, session.CurrentUser())
	assert.Empty(t, client.Token())

	assert.Equal(t, []SessionEvent{UserUpdated, SignedOut}, recorder.Events())
}

func TestSession_StartStop(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	ctx := context.Background()

	client := NewClient(srv.URL)
	session := NewSession(client)
	_, err := session.Register(ctx, registerInput())
	require.NoError(t, err)

	restored := NewSession(client)
	recorder := &eventRecorder{}
	restored.Subscribe(recorder.listen)

	require.NoError(t, restored.Start(ctx))
	defer restored.Stop()

	require.NotNil(t, restored.CurrentUser())
	assert.Equal(t, "kato@example.com", restored.CurrentUser().Email)
	assert.Equal(t, []SessionEvent{SignedIn}, recorder.Events())
}
