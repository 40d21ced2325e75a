// internal/domain/auth/entity.go
package auth

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the credential record behind a user.
type Identity struct {
	ID                  uuid.UUID              `json:"id" db:"id"`
	Email               string                 `json:"email" db:"email"`
	Phone               *string                `json:"phone,omitempty" db:"phone"`
	PasswordHash        string                 `json:"-" db:"password_hash"`
	UserMetadata        map[string]interface{} `json:"user_metadata" db:"user_metadata"`
	Status              string                 `json:"status" db:"status"` // active, inactive, suspended
	LastLogin           *time.Time             `json:"last_login,omitempty" db:"last_login"`
	FailedLoginAttempts int                    `json:"-" db:"failed_login_attempts"`
	LockedUntil         *time.Time             `json:"-" db:"locked_until"`
	CreatedAt           time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at" db:"updated_at"`
}

const (
	IdentityActive    = "active"
	IdentityInactive  = "inactive"
	IdentitySuspended = "suspended"
)

// SessionRecord is the durable row behind a cached session.
type SessionRecord struct {
	ID             int64      `json:"id" db:"id"`
	IdentityID     uuid.UUID  `json:"identity_id" db:"identity_id"`
	SessionToken   string     `json:"-" db:"session_token"`
	IPAddress      *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      *string    `json:"user_agent,omitempty" db:"user_agent"`
	Status         string     `json:"status" db:"status"` // active, revoked, expired
	LoginAt        time.Time  `json:"login_at" db:"login_at"`
	LastActivityAt time.Time  `json:"last_activity_at" db:"last_activity_at"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	LogoutAt       *time.Time `json:"logout_at,omitempty" db:"logout_at"`
}

// VerificationToken tracks one-shot tokens such as password recovery links.
type VerificationToken struct {
	ID         int64      `json:"id" db:"id"`
	IdentityID uuid.UUID  `json:"identity_id" db:"identity_id"`
	TokenType  string     `json:"token_type" db:"token_type"`
	Token      string     `json:"-" db:"token"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

const TokenTypeRecovery = "recovery"

// User is the identity as the provider hands it to callers.
type User struct {
	ID           uuid.UUID              `json:"id"`
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	LastSignInAt *time.Time             `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// UserFromIdentity strips credential fields.
func UserFromIdentity(i *Identity) *User {
	u := &User{
		ID:           i.ID,
		Email:        i.Email,
		UserMetadata: i.UserMetadata,
		LastSignInAt: i.LastLogin,
		CreatedAt:    i.CreatedAt,
	}
	if i.Phone != nil {
		u.Phone = *i.Phone
	}
	return u
}

// Session is a signed-in session as held by a client.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
