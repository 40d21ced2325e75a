package auth

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an auth state change.
type EventType string

const (
	EventInitialSession   EventType = "INITIAL_SESSION"
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventTokenRefreshed   EventType = "TOKEN_REFRESHED"
	EventUserUpdated      EventType = "USER_UPDATED"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// Event is published whenever an identity's auth state changes. SessionID is
// the token id the change applies to; empty means every session.
type Event struct {
	Type       EventType `json:"type"`
	IdentityID uuid.UUID `json:"identity_id"`
	SessionID  string    `json:"session_id,omitempty"`
	At         time.Time `json:"at"`
}

// StateHandler receives auth state changes for one client. session is nil
// after a sign-out.
type StateHandler func(event EventType, session *Session)
