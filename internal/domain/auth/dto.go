// internal/domain/auth/dto.go
package auth

// RegisterRequest for user registration. Shape rules are applied by the
// session façade so the response can name the failing field.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUpOptions carries the metadata stored with a new identity.
type SignUpOptions struct {
	FullName string
	Phone    string
	Role     Role
}

// ForgotPasswordRequest for password reset
// PasswordStrengthRequest carries a candidate password for the meter. The
// password is read from the body only, never from the URL.
type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,shape_email"`
}

// UpdatePasswordRequest completes recovery or changes the password of a
// signed-in user.
type UpdatePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ClientMeta is request context recorded with a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}
