// internal/service/identity/service.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/jwt"
	"mohandz-service/internal/pkg/metrics"
	"mohandz-service/internal/pkg/session"
	"mohandz-service/internal/pkg/validation"
	"mohandz-service/internal/service/email"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const lockDuration = 30 * time.Minute

// IdentityStore is the credential side of the relational store.
type IdentityStore interface {
	FindIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error)
	FindIdentityByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error)
	UpdateIdentityLastLogin(ctx context.Context, id uuid.UUID) error
	IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, lockDuration time.Duration) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	CreateVerificationToken(ctx context.Context, token *auth.VerificationToken) error
	ConsumeVerificationToken(ctx context.Context, tokenType, token string) (*auth.VerificationToken, error)
}

// AccountWriter creates an identity together with its profile.
type AccountWriter interface {
	CreateAccount(ctx context.Context, identity *auth.Identity, p *profile.Profile) error
}

// RoleStore is the part of the profile store the bootstrap needs.
type RoleStore interface {
	AnyWithRole(ctx context.Context, role string) (bool, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
}

// Sessions is implemented by *session.Manager.
type Sessions interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	GetSession(ctx context.Context, identityID uuid.UUID, jti string) (*session.SessionData, error)
	InvalidateSession(ctx context.Context, identityID uuid.UUID, jti string, remaining time.Duration) error
	InvalidateAllUserSessions(ctx context.Context, identityID uuid.UUID, maxRemaining time.Duration) ([]string, error)
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Limiter is implemented by *session.RateLimiter.
type Limiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
	CheckPasswordResetAttempt(ctx context.Context, email string) (bool, error)
}

// Service is the identity provider: credentials, sessions and auth events.
type Service struct {
	identities IdentityStore
	accounts   AccountWriter
	roles      RoleStore
	sessions   Sessions
	limiter    Limiter
	tokens     *jwt.Manager
	mailer     email.Mailer
	bus        Bus
	metrics    metrics.Recorder
	logger     *zap.Logger
	hashCost   int
	now        func() time.Time
}

type Deps struct {
	Identities IdentityStore
	Accounts   AccountWriter
	Roles      RoleStore
	Sessions   Sessions
	Limiter    Limiter
	Tokens     *jwt.Manager
	Mailer     email.Mailer
	Bus        Bus
	Metrics    metrics.Recorder
	Logger     *zap.Logger
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

func NewService(d Deps) *Service {
	if d.HashCost == 0 {
		d.HashCost = bcrypt.DefaultCost
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	return &Service{
		identities: d.Identities,
		accounts:   d.Accounts,
		roles:      d.Roles,
		sessions:   d.Sessions,
		limiter:    d.Limiter,
		tokens:     d.Tokens,
		mailer:     d.Mailer,
		bus:        d.Bus,
		metrics:    d.Metrics,
		logger:     d.Logger,
		hashCost:   d.HashCost,
		now:        time.Now,
	}
}

// ========== Sign up ==========

// SignUp creates an identity and its profile. It does not sign in.
func (s *Service) SignUp(ctx context.Context, emailAddr, password string, opts auth.SignUpOptions) (*auth.User, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if !validation.CheckPasswordLength(password) {
		return nil, xerrors.Invalid("password", "min_length")
	}

	exists, err := s.identities.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w", xerrors.ErrDuplicateEntry)
	}
	if opts.Phone != "" {
		exists, err := s.identities.ExistsByPhone(ctx, opts.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("phone already registered: %w", xerrors.ErrDuplicateEntry)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := opts.Role
	if role == "" {
		role = auth.RoleClient
	}

	identity := &auth.Identity{
		Email:        emailAddr,
		PasswordHash: string(hash),
		Status:       auth.IdentityActive,
		UserMetadata: map[string]interface{}{
			"full_name": opts.FullName,
			"phone":     opts.Phone,
			"role":      string(role),
		},
	}
	if opts.Phone != "" {
		phone := opts.Phone
		identity.Phone = &phone
	}

	p := &profile.Profile{Role: string(role), FullName: opts.FullName, Phone: opts.Phone}
	if err := s.accounts.CreateAccount(ctx, identity, p); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("identity registered", zap.String("identity_id", identity.ID.String()))
	return auth.UserFromIdentity(identity), nil
}

// ========== Sign in ==========

// SignIn checks credentials and opens a session. Every credential failure
// is reported as xerrors.ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string, meta auth.ClientMeta) (*auth.Session, error) {
	emailAddr = strings.TrimSpace(emailAddr)

	allowed, _, err := s.limiter.CheckLoginAttempt(ctx, meta.IPAddress, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	identity, err := s.identities.FindIdentityByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if identity.Status != auth.IdentityActive {
		return nil, xerrors.ErrInvalidCredentials
	}
	if identity.LockedUntil != nil && identity.LockedUntil.After(s.now()) {
		return nil, xerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		if err := s.identities.IncrementFailedLoginAttempts(ctx, identity.ID, lockDuration); err != nil {
			s.logger.Error("failed to record failed login", zap.Error(err))
		}
		return nil, xerrors.ErrInvalidCredentials
	}

	if err := s.identities.UpdateIdentityLastLogin(ctx, identity.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}
	if err := s.limiter.ResetLoginAttempts(ctx, meta.IPAddress, emailAddr); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	now := s.now()
	identity.LastLogin = &now
	sess, jti, err := s.openSession(ctx, identity, meta)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, auth.EventSignedIn, identity.ID, jti)
	return sess, nil
}

func (s *Service) openSession(ctx context.Context, identity *auth.Identity, meta auth.ClientMeta) (*auth.Session, string, error) {
	tok, err := s.tokens.Generator.GenerateAccessToken(identity.ID, identity.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:        tok.JTI,
		IdentityID: identity.ID,
		Email:      identity.Email,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		ExpiresAt:  tok.ExpiresAt,
	}); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	return &auth.Session{
		AccessToken: tok.Value,
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(tok.ExpiresAt).Seconds()),
		ExpiresAt:   tok.ExpiresAt,
		User:        auth.UserFromIdentity(identity),
	}, tok.JTI, nil
}

// ========== Session lookup ==========

// Authenticate resolves an access token to its live session. Invalid,
// revoked or expired tokens yield xerrors.ErrSessionExpired.
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Session, *jwt.Claims, error) {
	claims, err := s.tokens.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", xerrors.ErrSessionExpired, err)
	}
	identityID, err := claims.IdentityID()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", xerrors.ErrSessionExpired, err)
	}

	blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token: %w", err)
	}
	if blacklisted {
		return nil, nil, xerrors.ErrSessionExpired
	}

	if _, err := s.sessions.GetSession(ctx, identityID, claims.ID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, nil, xerrors.ErrSessionExpired
		}
		return nil, nil, err
	}

	identity, err := s.identities.FindIdentityByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, nil, xerrors.ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if identity.Status != auth.IdentityActive {
		return nil, nil, xerrors.ErrSessionExpired
	}

	expiresAt := claims.ExpiresAt.Time
	return &auth.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
		User:        auth.UserFromIdentity(identity),
	}, claims, nil
}

// Refresh swaps a live access token for a new one and retires the old.
func (s *Service) Refresh(ctx context.Context, token string, meta auth.ClientMeta) (*auth.Session, error) {
	current, claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.FindIdentityByID(ctx, current.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	next, jti, err := s.openSession(ctx, identity, meta)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.InvalidateSession(ctx, identity.ID, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.logger.Warn("failed to retire refreshed session", zap.Error(err))
	}

	s.publish(ctx, auth.EventTokenRefreshed, identity.ID, jti)
	return next, nil
}

// ========== Sign out ==========

// SignOut ends the session behind token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil
	}
	identityID, err := claims.IdentityID()
	if err != nil {
		return nil
	}

	if err := s.sessions.InvalidateSession(ctx, identityID, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	s.publish(ctx, auth.EventSignedOut, identityID, claims.ID)
	return nil
}

// ========== Password recovery ==========

// RequestRecovery emails a recovery link to emailAddr when it belongs to an
// identity. Unknown addresses succeed silently.
func (s *Service) RequestRecovery(ctx context.Context, emailAddr, redirectTo string, lang i18n.Lang) error {
	emailAddr = strings.TrimSpace(emailAddr)

	allowed, err := s.limiter.CheckPasswordResetAttempt(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return xerrors.ErrRateLimited
	}

	identity, err := s.identities.FindIdentityByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			s.logger.Info("recovery requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to load identity: %w", err)
	}

	tok, err := s.tokens.Generator.GenerateRecoveryToken(identity.ID, identity.Email)
	if err != nil {
		return fmt.Errorf("failed to generate recovery token: %w", err)
	}
	if err := s.identities.CreateVerificationToken(ctx, &auth.VerificationToken{
		IdentityID: identity.ID,
		TokenType:  auth.TokenTypeRecovery,
		Token:      tok.JTI,
		ExpiresAt:  tok.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("failed to store recovery token: %w", err)
	}

	fullName, _ := identity.UserMetadata["full_name"].(string)
	subject, body := email.RecoveryEmail(lang, fullName, recoveryLink(redirectTo, tok.Value))
	if err := s.mailer.Send(identity.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	s.publish(ctx, auth.EventPasswordRecovery, identity.ID, "")
	return nil
}

func recoveryLink(redirectTo, token string) string {
	sep := "?"
	if strings.Contains(redirectTo, "?") {
		sep = "&"
	}
	return redirectTo + sep + "token=" + token
}

// UpdatePassword sets a new password. token is either a live access token
// or a recovery token from an emailed link; the latter is single use and
// signs the identity out everywhere.
func (s *Service) UpdatePassword(ctx context.Context, token, password string) error {
	if !validation.CheckPasswordLength(password) {
		return xerrors.Invalid("password", "min_length")
	}

	if current, _, err := s.Authenticate(ctx, token); err == nil {
		if err := s.setPassword(ctx, current.User.ID, password); err != nil {
			return err
		}
		s.publish(ctx, auth.EventUserUpdated, current.User.ID, "")
		return nil
	}

	claims, err := s.tokens.Verifier.VerifyRecoveryToken(token)
	if err != nil {
		return xerrors.ErrSessionExpired
	}
	vt, err := s.identities.ConsumeVerificationToken(ctx, auth.TokenTypeRecovery, claims.ID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return xerrors.ErrSessionExpired
		}
		return fmt.Errorf("failed to consume recovery token: %w", err)
	}

	if err := s.setPassword(ctx, vt.IdentityID, password); err != nil {
		return err
	}
	if _, err := s.sessions.InvalidateAllUserSessions(ctx, vt.IdentityID, s.tokens.Generator.Ttl); err != nil {
		s.logger.Error("failed to end sessions after recovery", zap.Error(err))
	}

	s.publish(ctx, auth.EventSignedOut, vt.IdentityID, "")
	return nil
}

func (s *Service) setPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.identities.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ========== Events ==========

// NotifyUserUpdated tells open tabs of id to re-read the profile.
func (s *Service) NotifyUserUpdated(ctx context.Context, id uuid.UUID) {
	s.publish(ctx, auth.EventUserUpdated, id, "")
}

// Subscribe exposes the event bus for one identity.
func (s *Service) Subscribe(ctx context.Context, id uuid.UUID) (<-chan auth.Event, func() error, error) {
	return s.bus.Subscribe(ctx, id)
}

func (s *Service) publish(ctx context.Context, t auth.EventType, id uuid.UUID, sessionID string) {
	s.metrics.RecordAuthEvent(string(t))
	if s.bus == nil {
		return
	}
	ev := auth.Event{Type: t, IdentityID: id, SessionID: sessionID, At: s.now()}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish auth event",
			zap.String("type", string(t)),
			zap.String("identity_id", id.String()),
			zap.Error(err),
		)
	}
}
