// internal/pkg/session/types.go
package session

import (
	"time"

	"github.com/google/uuid"
)

// SessionData is the cached view of an active session, keyed by token id.
type SessionData struct {
	JTI            string    `json:"jti"`
	IdentityID     uuid.UUID `json:"identity_id"`
	SessionID      int64     `json:"session_id"` // DB session ID
	Email          string    `json:"email"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
