package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/pkg/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []auth.EventType
}

func (r *recorder) handle(ev auth.EventType, _ *auth.Session) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []auth.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.EventType(nil), r.events...)
}

func (r *recorder) has(ev auth.EventType) bool {
	for _, e := range r.snapshot() {
		if e == ev {
			return true
		}
	}
	return false
}

func TestClient_EventsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signUp(t, "ali@example.com", "password123")

	c := f.svc.NewClient("", meta, i18n.Arabic)
	rec := &recorder{}
	unsubscribe := c.OnAuthStateChange(rec.handle)

	_, err := c.SignInWithPassword(ctx, "ali@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Token())

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())
	assert.Equal(t, []auth.EventType{auth.EventSignedIn, auth.EventSignedOut}, rec.snapshot())

	unsubscribe()
	_, err = c.SignInWithPassword(ctx, "ali@example.com", "password123")
	require.NoError(t, err)
	assert.Len(t, rec.snapshot(), 2)
}

func TestClient_FailedSignInEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ali@example.com", "password123")

	c := f.svc.NewClient("", meta, i18n.Arabic)
	rec := &recorder{}
	c.OnAuthStateChange(rec.handle)

	_, err := c.SignInWithPassword(context.Background(), "ali@example.com", "nope-nope")
	assert.Error(t, err)
	assert.Empty(t, rec.snapshot())
}

func TestClient_GetSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.svc.NewClient("", meta, i18n.Arabic).GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	dead := f.svc.NewClient("garbage", meta, i18n.Arabic)
	sess, err = dead.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Empty(t, dead.Token())
}

func TestClient_ListenRelaysRemoteEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	u := f.signUp(t, "ali@example.com", "password123")

	tab := f.svc.NewClient("", meta, i18n.Arabic)
	sess, err := tab.SignInWithPassword(ctx, "ali@example.com", "password123")
	require.NoError(t, err)

	rec := &recorder{}
	tab.OnAuthStateChange(rec.handle)

	done := make(chan error, 1)
	go func() { done <- tab.Listen(ctx) }()

	// Publishing before the subscription is live is lost, so keep nudging.
	require.Eventually(t, func() bool {
		f.svc.NotifyUserUpdated(ctx, u.ID)
		return rec.has(auth.EventUserUpdated)
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, f.svc.SignOut(ctx, sess.AccessToken))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop after remote sign-out")
	}
	assert.True(t, rec.has(auth.EventSignedOut))
	assert.Empty(t, tab.Token())
}

func TestClient_ListenAnonymousReturns(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.NewClient("", meta, i18n.Arabic).Listen(context.Background()))
}
