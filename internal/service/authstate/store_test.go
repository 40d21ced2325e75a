package authstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	mu         sync.Mutex
	session    *auth.Session
	sessionErr error
	signInErr  error
	signUpErr  error
	signUps    []auth.SignUpOptions
	updates    []string
	resets     []string
	handlers   map[int]auth.StateHandler
	next       int
	holdEvents bool
	held       []func()
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{handlers: map[int]auth.StateHandler{}}
}

func (p *fakeProvider) emit(ev auth.EventType, s *auth.Session) {
	p.mu.Lock()
	hs := make([]auth.StateHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		hs = append(hs, h)
	}
	p.mu.Unlock()
	for _, h := range hs {
		h(ev, s)
	}
}

func (p *fakeProvider) GetSession(context.Context) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, p.sessionErr
}

func (p *fakeProvider) OnAuthStateChange(h auth.StateHandler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.handlers[id] = h
	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, _ string) (*auth.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	s := sessionFor(uuid.New(), email)
	p.mu.Lock()
	p.session = s
	if p.holdEvents {
		p.held = append(p.held, func() { p.emit(auth.EventSignedIn, s) })
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()
	p.emit(auth.EventSignedIn, s)
	return s, nil
}

func (p *fakeProvider) release() {
	p.mu.Lock()
	held := p.held
	p.held = nil
	p.mu.Unlock()
	for _, f := range held {
		f()
	}
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string, opts auth.SignUpOptions) (*auth.User, error) {
	p.mu.Lock()
	p.signUps = append(p.signUps, opts)
	p.mu.Unlock()
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	return &auth.User{ID: uuid.New(), Email: email}, nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	p.emit(auth.EventSignedOut, nil)
	return nil
}

func (p *fakeProvider) ResetPasswordForEmail(_ context.Context, email, _ string) error {
	p.resets = append(p.resets, email)
	return nil
}

func (p *fakeProvider) UpdateUser(_ context.Context, password string) error {
	p.updates = append(p.updates, password)
	return nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*profile.Profile
	err      error
	calls    int
}

func (f *fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) setRole(id uuid.UUID, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[id].Role = role
}

func sessionFor(id uuid.UUID, email string) *auth.Session {
	return &auth.Session{
		AccessToken: "token",
		User: &auth.User{
			ID:           id,
			Email:        email,
			UserMetadata: map[string]interface{}{"full_name": "Ali"},
		},
	}
}

func newStore(t *testing.T, p *fakeProvider, profiles *fakeProfiles) *Store {
	t.Helper()
	s := New(context.Background(), p, profiles, zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestStore_StartsLoading(t *testing.T) {
	s := newStore(t, newFakeProvider(), &fakeProfiles{})
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Identity)
}

func TestStore_InitAnonymous(t *testing.T) {
	s := newStore(t, newFakeProvider(), &fakeProfiles{})
	s.Init(context.Background())

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.User())
}

func TestStore_InitWithProfile(t *testing.T) {
	id := uuid.New()
	p := newFakeProvider()
	p.session = sessionFor(id, "ali@example.com")
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{
		id: {ID: id, Role: "client", FullName: "Ali Hassan", Phone: "0512345678"},
	}}

	s := newStore(t, p, profiles)
	s.Init(context.Background())

	snap := s.Snapshot()
	require.NotNil(t, snap.Identity)
	role, ok := snap.Role()
	assert.True(t, ok)
	assert.Equal(t, auth.RoleClient, role)

	u := snap.User()
	assert.Equal(t, "Ali Hassan", u.FullName)
	assert.Equal(t, "0512345678", u.Phone)
	assert.Equal(t, "ali@example.com", u.Email)
}

func TestStore_ProfileFailuresFallBackToIdentity(t *testing.T) {
	for name, profiles := range map[string]*fakeProfiles{
		"no row":        {profiles: map[uuid.UUID]*profile.Profile{}},
		"backend error": {err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			p := newFakeProvider()
			p.session = sessionFor(uuid.New(), "ali@example.com")

			s := newStore(t, p, profiles)
			s.Init(context.Background())

			snap := s.Snapshot()
			assert.False(t, snap.Loading)
			require.NotNil(t, snap.Identity)
			assert.Nil(t, snap.Profile)
			_, ok := snap.Role()
			assert.False(t, ok)
			assert.Equal(t, "Ali", snap.User().FullName)
		})
	}
}

func TestStore_UnknownRoleIsUndefined(t *testing.T) {
	id := uuid.New()
	p := newFakeProvider()
	p.session = sessionFor(id, "ali@example.com")
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{id: {ID: id, Role: "superuser"}}}

	s := newStore(t, p, profiles)
	s.Init(context.Background())

	_, ok := s.Snapshot().Role()
	assert.False(t, ok)
}

func TestStore_ProviderErrorResolvesAnonymous(t *testing.T) {
	p := newFakeProvider()
	p.sessionErr = errors.New("network down")

	s := newStore(t, p, &fakeProfiles{})
	snap := s.GetCurrentSession(context.Background())
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("failure is generic and leaves state alone", func(t *testing.T) {
		p := newFakeProvider()
		p.signInErr = errors.New("password mismatch for user 42")
		s := newStore(t, p, &fakeProfiles{})
		s.Init(ctx)

		err := s.Login(ctx, "ali@example.com", "bad")
		assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
		assert.NotContains(t, err.Error(), "42")
		assert.Nil(t, s.Snapshot().Identity)
	})

	t.Run("rate limit passes through", func(t *testing.T) {
		p := newFakeProvider()
		p.signInErr = xerrors.ErrRateLimited
		s := newStore(t, p, &fakeProfiles{})
		assert.ErrorIs(t, s.Login(ctx, "ali@example.com", "x"), xerrors.ErrRateLimited)
	})

	t.Run("success updates state through the event", func(t *testing.T) {
		p := newFakeProvider()
		s := newStore(t, p, &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{}})
		s.Init(ctx)

		require.NoError(t, s.Login(ctx, " ali@example.com ", "password123"))
		snap := s.Snapshot()
		require.NotNil(t, snap.Identity)
		assert.Equal(t, "ali@example.com", snap.Identity.Email)
	})

	t.Run("late event updates state after return", func(t *testing.T) {
		p := newFakeProvider()
		p.holdEvents = true
		s := newStore(t, p, &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{}})
		s.Init(ctx)

		require.NoError(t, s.Login(ctx, "ali@example.com", "password123"))
		assert.Nil(t, s.Snapshot().Identity)

		p.release()
		snap := s.Snapshot()
		require.NotNil(t, snap.Identity)
		assert.Equal(t, "ali@example.com", snap.Identity.Email)
	})
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	p := newFakeProvider()
	p.session = sessionFor(id, "ali@example.com")
	s := newStore(t, p, &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{id: {ID: id, Role: "admin"}}})
	s.Init(ctx)
	require.NotNil(t, s.Snapshot().Identity)

	require.NoError(t, s.Logout(ctx))
	snap := s.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.False(t, snap.Loading)
}

func TestStore_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("short password never reaches the provider", func(t *testing.T) {
		p := newFakeProvider()
		s := newStore(t, p, &fakeProfiles{})
		_, err := s.Register(ctx, "Ali", "ali@example.com", "0599999999", "short")
		var ve *xerrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "min_length", ve.Rule)
		assert.Empty(t, p.signUps)
	})

	t.Run("non-saudi phone never reaches the provider", func(t *testing.T) {
		p := newFakeProvider()
		s := newStore(t, p, &fakeProfiles{})
		_, err := s.Register(ctx, "Ali", "ali@example.com", "0612345678", "password123")
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		assert.Empty(t, p.signUps)
	})

	t.Run("signs up a client", func(t *testing.T) {
		p := newFakeProvider()
		s := newStore(t, p, &fakeProfiles{})
		u, err := s.Register(ctx, "Ali", "ali@example.com", "512345678", "password123")
		require.NoError(t, err)
		assert.Equal(t, "ali@example.com", u.Email)
		require.Len(t, p.signUps, 1)
		assert.Equal(t, auth.SignUpOptions{FullName: "Ali", Phone: "512345678", Role: auth.RoleClient}, p.signUps[0])
		assert.Nil(t, s.Snapshot().Identity, "registering does not sign in")
	})

	t.Run("duplicate surfaces from the provider", func(t *testing.T) {
		p := newFakeProvider()
		p.signUpErr = xerrors.ErrDuplicateEntry
		s := newStore(t, p, &fakeProfiles{})
		_, err := s.Register(ctx, "Ali", "ali@example.com", "0512345678", "password123")
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})
}

func TestStore_UserUpdatedRefetchesProfile(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	p := newFakeProvider()
	p.session = sessionFor(id, "ali@example.com")
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{id: {ID: id, Role: "client"}}}
	s := newStore(t, p, profiles)
	s.Init(ctx)

	profiles.setRole(id, "admin")
	p.emit(auth.EventUserUpdated, p.session)

	role, ok := s.Snapshot().Role()
	require.True(t, ok)
	assert.Equal(t, auth.RoleAdmin, role)
}

func TestStore_TokenRefreshKeepsProfile(t *testing.T) {
	id := uuid.New()
	p := newFakeProvider()
	p.session = sessionFor(id, "ali@example.com")
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{id: {ID: id, Role: "client"}}}
	s := newStore(t, p, profiles)
	s.Init(context.Background())
	require.Equal(t, 1, profiles.calls)

	p.emit(auth.EventTokenRefreshed, sessionFor(id, "ali@example.com"))
	assert.Equal(t, 1, profiles.calls)
	_, ok := s.Snapshot().Role()
	assert.True(t, ok)
}

func TestStore_InitOnce(t *testing.T) {
	p := newFakeProvider()
	p.session = sessionFor(uuid.New(), "ali@example.com")
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{}}
	s := newStore(t, p, profiles)

	s.Init(context.Background())
	s.Init(context.Background())
	assert.Equal(t, 1, profiles.calls)
}

func TestStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newFakeProvider()
	s := newStore(t, p, &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{}})
	ch := s.Watch(ctx)

	first := <-ch
	assert.True(t, first.Loading)

	s.Init(ctx)
	select {
	case snap := <-ch:
		assert.False(t, snap.Loading)
	case <-time.After(time.Second):
		t.Fatal("no update after init")
	}

	require.NoError(t, s.Login(ctx, "ali@example.com", "password123"))
	select {
	case snap := <-ch:
		assert.NotNil(t, snap.Identity)
	case <-time.After(time.Second):
		t.Fatal("no update after login")
	}

	s.Close()
	_, open := <-ch
	assert.False(t, open)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider()
	s := newStore(t, p, &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{}})
	s.Init(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := s.Snapshot()
				if snap.Identity == nil {
					assert.Nil(t, snap.Profile)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Login(ctx, "ali@example.com", "password123"))
		require.NoError(t, s.Logout(ctx))
	}
	wg.Wait()
}

func TestStore_UpdatePasswordChecksLocally(t *testing.T) {
	p := newFakeProvider()
	s := newStore(t, p, &fakeProfiles{})

	assert.ErrorIs(t, s.UpdatePassword(context.Background(), "password123", "password124"), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, s.UpdatePassword(context.Background(), "short", "short"), xerrors.ErrInvalidInput)
	assert.Empty(t, p.updates)

	require.NoError(t, s.UpdatePassword(context.Background(), "password123", "password123"))
	assert.Equal(t, []string{"password123"}, p.updates)
}

func TestStore_RequestPasswordReset(t *testing.T) {
	p := newFakeProvider()
	s := newStore(t, p, &fakeProfiles{})

	assert.ErrorIs(t, s.RequestPasswordReset(context.Background(), "not-an-email", "/x"), xerrors.ErrInvalidInput)
	require.NoError(t, s.RequestPasswordReset(context.Background(), "ali@example.com", "/x"))
	assert.Equal(t, []string{"ali@example.com"}, p.resets)
}
