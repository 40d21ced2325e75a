// internal/service/authstate/snapshot.go
package authstate

import (
	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"

	"github.com/google/uuid"
)

// Snapshot is an immutable view of who the current user is. Identity nil
// implies Profile nil. Loading is true only before the first resolution.
type Snapshot struct {
	Identity *auth.User       `json:"identity"`
	Profile  *profile.Profile `json:"profile"`
	Loading  bool             `json:"loading"`
}

func unresolved() Snapshot { return Snapshot{Loading: true} }

func anonymous() Snapshot { return Snapshot{} }

func (s Snapshot) Authenticated() bool { return s.Identity != nil }

// Role returns the profile role when it is one of the stored roles. A
// missing profile or an unknown value reports false.
func (s Snapshot) Role() (auth.Role, bool) {
	if s.Identity == nil || s.Profile == nil {
		return "", false
	}
	return auth.ParseRole(s.Profile.Role)
}

// User is the identity merged with its profile; profile fields win.
type User struct {
	ID           uuid.UUID              `json:"id"`
	Email        string                 `json:"email"`
	FullName     string                 `json:"full_name"`
	Phone        string                 `json:"phone"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// User merges identity and profile, or returns nil when anonymous.
func (s Snapshot) User() *User {
	if s.Identity == nil {
		return nil
	}
	u := &User{
		ID:           s.Identity.ID,
		Email:        s.Identity.Email,
		Phone:        s.Identity.Phone,
		UserMetadata: s.Identity.UserMetadata,
	}
	if name, ok := s.Identity.UserMetadata["full_name"].(string); ok {
		u.FullName = name
	}
	if s.Profile != nil {
		u.Role = s.Profile.Role
		if s.Profile.FullName != "" {
			u.FullName = s.Profile.FullName
		}
		if s.Profile.Phone != "" {
			u.Phone = s.Profile.Phone
		}
	}
	return u
}

// View is the JSON shape sent to browsers.
type View struct {
	Authenticated bool  `json:"authenticated"`
	Loading       bool  `json:"loading"`
	User          *User `json:"user"`
}

func (s Snapshot) View() View {
	return View{Authenticated: s.Authenticated(), Loading: s.Loading, User: s.User()}
}
