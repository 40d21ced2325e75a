// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mohandz-service/internal/domain/auth"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
)

type AuthRepository struct {
	db DBTX
}

func NewAuthRepository(db DBTX) *AuthRepository {
	return &AuthRepository{db: db}
}

// WithConn returns a copy bound to conn, typically a transaction.
func (r *AuthRepository) WithConn(conn DBTX) *AuthRepository {
	return &AuthRepository{db: conn}
}

const identityColumns = `id, email, phone, password_hash, user_metadata, status,
		       last_login, failed_login_attempts, locked_until, created_at, updated_at`

// ========== Identity Methods ==========

// FindIdentityByEmail retrieves an identity by email, case-insensitively.
func (r *AuthRepository) FindIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM auth_identities WHERE LOWER(email) = LOWER($1)`
	return r.scanIdentity(r.db.QueryRow(ctx, query, email), "find identity")
}

// FindIdentityByID retrieves an identity by ID
func (r *AuthRepository) FindIdentityByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM auth_identities WHERE id = $1`
	return r.scanIdentity(r.db.QueryRow(ctx, query, id), "find identity")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AuthRepository) scanIdentity(row rowScanner, op string) (*auth.Identity, error) {
	var identity auth.Identity
	var metadataJSON []byte

	err := row.Scan(
		&identity.ID, &identity.Email, &identity.Phone, &identity.PasswordHash, &metadataJSON,
		&identity.Status, &identity.LastLogin, &identity.FailedLoginAttempts, &identity.LockedUntil,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, op)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &identity.UserMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user metadata: %w", err)
		}
	}
	return &identity, nil
}

// CreateIdentity inserts a new identity. A taken email or phone yields
// xerrors.ErrDuplicateEntry.
func (r *AuthRepository) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	if identity.Status == "" {
		identity.Status = auth.IdentityActive
	}

	metadataJSON, err := json.Marshal(identity.UserMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal user metadata: %w", err)
	}

	query := `
		INSERT INTO auth_identities (id, email, phone, password_hash, user_metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query,
		identity.ID, identity.Email, identity.Phone, identity.PasswordHash, metadataJSON, identity.Status,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)
	return mapError(err, "create identity")
}

// UpdateIdentityLastLogin updates the last login timestamp
func (r *AuthRepository) UpdateIdentityLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE auth_identities
		SET last_login = $1, failed_login_attempts = 0, locked_until = NULL
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, time.Now(), id)
	return mapError(err, "update last login")
}

// IncrementFailedLoginAttempts bumps the counter and locks the identity
// once it reaches five.
func (r *AuthRepository) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID, lockDuration time.Duration) error {
	query := `
		UPDATE auth_identities
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= 5 THEN $1
		        ELSE NULL
		    END
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, time.Now().Add(lockDuration), id)
	return mapError(err, "increment failed logins")
}

// UpdatePassword replaces the password hash.
func (r *AuthRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE auth_identities SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return mapError(err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateMetadata merges keys into user_metadata.
func (r *AuthRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata patch: %w", err)
	}
	query := `UPDATE auth_identities SET user_metadata = user_metadata || $1::jsonb, updated_at = NOW() WHERE id = $2`
	_, err = r.db.Exec(ctx, query, patchJSON, id)
	return mapError(err, "update metadata")
}

// ========== Session Methods ==========

// CreateSession persists a session; SessionToken holds the token id.
func (r *AuthRepository) CreateSession(ctx context.Context, session *auth.SessionRecord) error {
	query := `
		INSERT INTO auth_sessions (identity_id, session_token, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, login_at, last_activity_at
	`
	err := r.db.QueryRow(ctx, query,
		session.IdentityID, session.SessionToken, session.IPAddress, session.UserAgent, session.ExpiresAt,
	).Scan(&session.ID, &session.Status, &session.LoginAt, &session.LastActivityAt)
	return mapError(err, "create session")
}

// FindActiveSession looks up an unexpired active session by token id.
func (r *AuthRepository) FindActiveSession(ctx context.Context, identityID uuid.UUID, token string) (*auth.SessionRecord, error) {
	query := `
		SELECT id, identity_id, session_token, ip_address, user_agent, status,
		       login_at, last_activity_at, expires_at, logout_at
		FROM auth_sessions
		WHERE identity_id = $1 AND session_token = $2 AND status = 'active' AND expires_at > NOW()
	`
	var s auth.SessionRecord
	err := r.db.QueryRow(ctx, query, identityID, token).Scan(
		&s.ID, &s.IdentityID, &s.SessionToken, &s.IPAddress, &s.UserAgent, &s.Status,
		&s.LoginAt, &s.LastActivityAt, &s.ExpiresAt, &s.LogoutAt,
	)
	if err != nil {
		return nil, mapError(err, "find session")
	}
	return &s, nil
}

// RevokeSession marks one session as logged out.
func (r *AuthRepository) RevokeSession(ctx context.Context, identityID uuid.UUID, token string) error {
	query := `
		UPDATE auth_sessions SET status = 'revoked', logout_at = NOW()
		WHERE identity_id = $1 AND session_token = $2 AND status = 'active'
	`
	_, err := r.db.Exec(ctx, query, identityID, token)
	return mapError(err, "revoke session")
}

// RevokeAllSessions logs an identity out everywhere and returns the
// affected token ids.
func (r *AuthRepository) RevokeAllSessions(ctx context.Context, identityID uuid.UUID) ([]string, error) {
	query := `
		UPDATE auth_sessions SET status = 'revoked', logout_at = NOW()
		WHERE identity_id = $1 AND status = 'active'
		RETURNING session_token
	`
	rows, err := r.db.Query(ctx, query, identityID)
	if err != nil {
		return nil, mapError(err, "revoke sessions")
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan session token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// ========== Verification Tokens ==========

// CreateVerificationToken stores a one-shot token.
func (r *AuthRepository) CreateVerificationToken(ctx context.Context, token *auth.VerificationToken) error {
	query := `
		INSERT INTO auth_verification_tokens (identity_id, token_type, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, token.IdentityID, token.TokenType, token.Token, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	return mapError(err, "create verification token")
}

// ConsumeVerificationToken marks an unused, unexpired token as used and
// returns it. A second call for the same token yields xerrors.ErrNotFound.
func (r *AuthRepository) ConsumeVerificationToken(ctx context.Context, tokenType, token string) (*auth.VerificationToken, error) {
	query := `
		UPDATE auth_verification_tokens SET used_at = NOW()
		WHERE token_type = $1 AND token = $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id, identity_id, token_type, token, expires_at, used_at, created_at
	`
	var vt auth.VerificationToken
	err := r.db.QueryRow(ctx, query, tokenType, token).Scan(
		&vt.ID, &vt.IdentityID, &vt.TokenType, &vt.Token, &vt.ExpiresAt, &vt.UsedAt, &vt.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "consume verification token")
	}
	return &vt, nil
}

// ========== Helpers ==========

// ExistsByEmail checks if an identity exists with the given email
func (r *AuthRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM auth_identities WHERE LOWER(email) = LOWER($1))`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	return exists, mapError(err, "check email")
}

// ExistsByPhone checks if an identity exists with the given phone
func (r *AuthRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM auth_identities WHERE phone = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, phone).Scan(&exists)
	return exists, mapError(err, "check phone")
}
