package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/jwt"
	"mohandz-service/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memStore backs IdentityStore, AccountWriter and RoleStore.
type memStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*auth.Identity
	profiles   map[uuid.UUID]*profile.Profile
	tokens     map[string]*auth.VerificationToken
}

func newMemStore() *memStore {
	return &memStore{
		identities: map[uuid.UUID]*auth.Identity{},
		profiles:   map[uuid.UUID]*profile.Profile{},
		tokens:     map[string]*auth.VerificationToken{},
	}
}

func (m *memStore) FindIdentityByEmail(_ context.Context, email string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if strings.EqualFold(i.Email, email) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memStore) FindIdentityByID(_ context.Context, id uuid.UUID) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memStore) UpdateIdentityLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.identities[id].LastLogin = &now
	m.identities[id].FailedLoginAttempts = 0
	return nil
}

func (m *memStore) IncrementFailedLoginAttempts(_ context.Context, id uuid.UUID, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.identities[id]
	i.FailedLoginAttempts++
	if i.FailedLoginAttempts >= 5 {
		until := time.Now().Add(d)
		i.LockedUntil = &until
	}
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	i.PasswordHash = hash
	return nil
}

func (m *memStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindIdentityByEmail(ctx, email)
	return err == nil, nil
}

func (m *memStore) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if i.Phone != nil && *i.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateVerificationToken(_ context.Context, t *auth.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.TokenType+":"+t.Token] = &cp
	return nil
}

func (m *memStore) ConsumeVerificationToken(_ context.Context, tokenType, token string) (*auth.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenType+":"+token]
	if !ok || t.UsedAt != nil || t.ExpiresAt.Before(time.Now()) {
		return nil, xerrors.ErrNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	cp := *t
	return &cp, nil
}

func (m *memStore) CreateAccount(_ context.Context, i *auth.Identity, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.CreatedAt = time.Now()
	p.ID = i.ID
	ci, cp := *i, *p
	m.identities[i.ID] = &ci
	m.profiles[i.ID] = &cp
	return nil
}

func (m *memStore) AnyWithRole(_ context.Context, role string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateRole(_ context.Context, id uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	p.Role = role
	return nil
}

func (m *memStore) role(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[id].Role
}

// memSessionStore is the durable side for session.Manager.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.SessionRecord
}

func (s *memSessionStore) CreateSession(_ context.Context, r *auth.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.sessions) + 1)
	r.Status = "active"
	r.LoginAt = time.Now()
	cp := *r
	s.sessions[r.SessionToken] = &cp
	return nil
}

func (s *memSessionStore) FindActiveSession(_ context.Context, id uuid.UUID, token string) (*auth.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sessions[token]
	if !ok || r.IdentityID != id || r.Status != "active" {
		return nil, xerrors.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memSessionStore) RevokeSession(_ context.Context, id uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.sessions[token]; ok && r.IdentityID == id {
		r.Status = "revoked"
	}
	return nil
}

func (s *memSessionStore) RevokeAllSessions(_ context.Context, id uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for token, r := range s.sessions {
		if r.IdentityID == id && r.Status == "active" {
			r.Status = "revoked"
			out = append(out, token)
		}
	}
	return out, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	svc    *Service
	store  *memStore
	mailer *fakeMailer
	bus    *RedisBus
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewManager(key, &key.PublicKey, jwt.Config{
		Issuer: "mohandz-service", Audience: "mohandz-web", TTL: time.Hour,
	})

	logger := zap.NewNop()
	store := newMemStore()
	mailer := &fakeMailer{}
	bus := NewRedisBus(client, logger)

	svc := NewService(Deps{
		Identities: store,
		Accounts:   store,
		Roles:      store,
		Sessions:   session.NewManager(client, &memSessionStore{sessions: map[string]*auth.SessionRecord{}}, logger),
		Limiter:    session.NewRateLimiter(client),
		Tokens:     tokens,
		Mailer:     mailer,
		Bus:        bus,
		Logger:     logger,
		HashCost:   bcrypt.MinCost,
	})

	return &fixture{svc: svc, store: store, mailer: mailer, bus: bus, redis: mr}
}

func (f *fixture) signUp(t *testing.T, email, password string) *auth.User {
	t.Helper()
	u, err := f.svc.SignUp(context.Background(), email, password, auth.SignUpOptions{
		FullName: "Ali", Phone: "0512345678", Role: auth.RoleClient,
	})
	require.NoError(t, err)
	return u
}
