// internal/pkg/jwt/claims.go
package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeAccess   = "access"
	PurposeRecovery = "recovery"
)

// Claims carries identity only. Roles live on the profile and are resolved
// per request so a role change applies to tokens already issued.
type Claims struct {
	Email          string `json:"email"`
	IsTemp         bool   `json:"is_temp"`
	SessionPurpose string `json:"session_purpose"` // access, recovery
	jwt.RegisteredClaims
}

// IdentityID parses the subject.
func (c *Claims) IdentityID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return id, nil
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
