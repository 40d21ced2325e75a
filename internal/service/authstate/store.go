// internal/service/authstate/store.go
package authstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const profileFetchTimeout = 5 * time.Second

// Provider is the identity client for one browser tab.
type Provider interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	OnAuthStateChange(handler auth.StateHandler) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.User, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, password string) error
}

// ProfileStore returns xerrors.ErrNotFound when no profile row exists.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Store holds the session state of one tab. The provider's event handler
// is the only writer; Snapshot and Watch may be called from anywhere.
type Store struct {
	ctx      context.Context
	provider Provider
	profiles ProfileStore
	logger   *zap.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	snap     Snapshot
	watchers map[int]chan Snapshot
	nextID   int
	closed   bool

	unsubscribe func()
	initOnce    sync.Once
}

// New subscribes to provider. ctx bounds profile lookups made while
// handling events.
func New(ctx context.Context, provider Provider, profiles ProfileStore, logger *zap.Logger) *Store {
	s := &Store{
		ctx:      ctx,
		provider: provider,
		profiles: profiles,
		logger:   logger,
		snap:     unresolved(),
		watchers: make(map[int]chan Snapshot),
	}
	s.unsubscribe = provider.OnAuthStateChange(s.handle)
	return s
}

// Init resolves the initial session once. Later calls are no-ops.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		s.GetCurrentSession(ctx)
	})
}

// GetCurrentSession asks the provider for the session and feeds the answer
// through the event handler. A provider error resolves to anonymous.
func (s *Store) GetCurrentSession(ctx context.Context) Snapshot {
	sess, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.Warn("session lookup failed", zap.Error(err))
		sess = nil
	}
	s.handle(auth.EventInitialSession, sess)
	return s.Snapshot()
}

func (s *Store) handle(event auth.EventType, sess *auth.Session) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if event == auth.EventSignedOut || sess == nil || sess.User == nil {
		s.set(anonymous())
		return
	}

	current := s.Snapshot()
	if event == auth.EventTokenRefreshed && current.Profile != nil &&
		current.Identity != nil && current.Identity.ID == sess.User.ID {
		s.set(Snapshot{Identity: sess.User, Profile: current.Profile})
		return
	}

	s.set(Snapshot{Identity: sess.User, Profile: s.fetchProfile(sess.User.ID)})
}

// fetchProfile returns nil on any failure so the session still resolves
// with identity data only.
func (s *Store) fetchProfile(id uuid.UUID) *profile.Profile {
	ctx, cancel := context.WithTimeout(s.ctx, profileFetchTimeout)
	defer cancel()

	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		if !errors.Is(err, xerrors.ErrNotFound) {
			s.logger.Warn("profile fetch failed", zap.String("identity_id", id.String()), zap.Error(err))
		}
		return nil
	}
	return p
}

func (s *Store) set(next Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = next
	for _, ch := range s.watchers {
		offer(ch, next)
	}
}

// offer replaces any unread value so watchers only see the latest state.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Watch streams state changes, starting with the current state. Slow
// readers skip intermediate states. The channel closes when ctx ends or
// the store is closed.
func (s *Store) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
		s.mu.Unlock()
	}()
	return ch
}

// Close unsubscribes from the provider and ends every Watch.
func (s *Store) Close() {
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}

// ========== Operations ==========

// Login signs in. It does not touch the snapshot: the identity appears once
// the provider delivers SIGNED_IN, which may be after Login returns. Callers
// that need the signed-in state should Watch for it.
// Credential problems are reported as xerrors.ErrInvalidCredentials.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if _, err := s.provider.SignInWithPassword(ctx, strings.TrimSpace(email), password); err != nil {
		if errors.Is(err, xerrors.ErrRateLimited) {
			return err
		}
		if !errors.Is(err, xerrors.ErrInvalidCredentials) {
			s.logger.Warn("login failed", zap.Error(err))
		}
		return xerrors.ErrInvalidCredentials
	}
	return nil
}

// Register validates locally, then signs up a client. It does not sign in.
func (s *Store) Register(ctx context.Context, fullName, email, phone, password string) (*auth.User, error) {
	c := validation.Credentials{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Phone:    strings.TrimSpace(phone),
		Password: password,
	}
	if err := validation.ValidateRegistration(c); err != nil {
		return nil, err
	}

	user, err := s.provider.SignUp(ctx, c.Email, c.Password, auth.SignUpOptions{
		FullName: c.FullName,
		Phone:    c.Phone,
		Role:     auth.RoleClient,
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return user, nil
}

// Logout signs out; on nil return the snapshot is anonymous.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// RequestPasswordReset sends a recovery link when email has a valid shape.
func (s *Store) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = strings.TrimSpace(email)
	if !validation.IsValidEmail(email) {
		return xerrors.Invalid("email", "shape")
	}
	return s.provider.ResetPasswordForEmail(ctx, email, redirectTo)
}

// UpdatePassword checks length and confirmation before calling the provider.
func (s *Store) UpdatePassword(ctx context.Context, password, confirm string) error {
	if err := validation.ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	return s.provider.UpdateUser(ctx, password)
}
