// internal/middleware/helpers.go
package middleware

import (
	"mohandz-service/internal/service/authstate"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionKey = "session"
	clientKey  = "identity_client"
	langKey    = "lang"
)

type snapshotter interface {
	Snapshot() authstate.Snapshot
}

// CurrentSnapshot returns the request's session state. Without the session
// middleware the request is treated as anonymous.
func CurrentSnapshot(c *gin.Context) authstate.Snapshot {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(snapshotter); ok {
			return s.Snapshot()
		}
	}
	return authstate.Snapshot{}
}

// CurrentStore returns the request's session store.
func CurrentStore(c *gin.Context) (*authstate.Store, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*authstate.Store)
	return s, ok
}

// CurrentClient returns the identity client bound to the request token.
func CurrentClient(c *gin.Context) (TabClient, bool) {
	v, ok := c.Get(clientKey)
	if !ok {
		return nil, false
	}
	cl, ok := v.(TabClient)
	return cl, ok
}

// GetIdentityID returns the signed-in identity id.
func GetIdentityID(c *gin.Context) (uuid.UUID, bool) {
	snap := CurrentSnapshot(c)
	if snap.Identity == nil {
		return uuid.Nil, false
	}
	return snap.Identity.ID, true
}

// MustGetIdentityID gets identity ID from context or panics. Only use behind
// a guard.
func MustGetIdentityID(c *gin.Context) uuid.UUID {
	id, ok := GetIdentityID(c)
	if !ok {
		panic("identity not found in context")
	}
	return id
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	return CurrentSnapshot(c).Authenticated()
}
