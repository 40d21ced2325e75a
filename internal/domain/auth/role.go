package auth

// Role is closed: anything else read from storage is treated as missing.
type Role string

const (
	RoleClient          Role = "client"
	RoleAdmin           Role = "admin"
	RoleUnauthenticated Role = "unauthenticated"
)

// ParseRole accepts only the roles that can be stored on a profile.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient:
		return RoleClient, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}
