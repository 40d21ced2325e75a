// Package validation holds the local form rules shared by registration,
// password recovery and request submission. Every rule runs before any call
// to the identity provider or the store.
package validation

import (
	"errors"
	"regexp"
	"unicode/utf8"

	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
)

// MinPasswordLength is the shortest password accepted on register and reset.
const MinPasswordLength = 8

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	saudiPhonePattern = regexp.MustCompile(`^(05|5)[0-9]{8}$`)
)

// IsValidEmail is a shape check only; deliverability is never verified.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidSaudiPhone accepts 05XXXXXXXX or 5XXXXXXXX.
func IsValidSaudiPhone(s string) bool {
	return saudiPhonePattern.MatchString(s)
}

// CheckPasswordLength reports whether p has at least MinPasswordLength runes.
func CheckPasswordLength(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength
}

// PasswordStrength scores p from 0 to 4. Character classes are ASCII; any
// other rune counts as a symbol. It feeds the meter only and never gates a
// submission.
func PasswordStrength(p string) int {
	if p == "" {
		return 0
	}
	n := utf8.RuneCountInString(p)

	var lower, upper, digit, other bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}

	score := 0
	if n >= 8 {
		score++
	}
	if lower && upper {
		score++
	}
	if digit {
		score++
	}
	if other {
		score++
	}

	if n < 6 {
		return 1
	}
	return score
}

// Credentials groups the fields checked on sign-up.
type Credentials struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// ValidateRegistration applies the sign-up rules in the order the form shows
// its errors: required fields, password length, then phone shape.
func ValidateRegistration(c Credentials) error {
	switch {
	case c.FullName == "":
		return xerrors.Invalid("full_name", "required")
	case c.Email == "":
		return xerrors.Invalid("email", "required")
	case c.Phone == "":
		return xerrors.Invalid("phone", "required")
	case c.Password == "":
		return xerrors.Invalid("password", "required")
	}
	if !IsValidEmail(c.Email) {
		return xerrors.Invalid("email", "shape")
	}
	if !CheckPasswordLength(c.Password) {
		return xerrors.Invalid("password", "min_length")
	}
	if !IsValidSaudiPhone(c.Phone) {
		return xerrors.Invalid("phone", "saudi_mobile")
	}
	return nil
}

// ValidateNewPassword checks the update-password form.
func ValidateNewPassword(password, confirm string) error {
	if !CheckPasswordLength(password) {
		return xerrors.Invalid("password", "min_length")
	}
	if password != confirm {
		return xerrors.Invalid("confirm_password", "mismatch")
	}
	return nil
}

// StrengthLevel names a PasswordStrength score for the meter.
type StrengthLevel string

const (
	VeryWeak   StrengthLevel = "very_weak"
	Weak       StrengthLevel = "weak"
	Medium     StrengthLevel = "medium"
	Strong     StrengthLevel = "strong"
	VeryStrong StrengthLevel = "very_strong"
)

var strengthLevels = [...]StrengthLevel{VeryWeak, Weak, Medium, Strong, VeryStrong}

// LevelFor maps a score to its level, clamping out-of-range scores.
func LevelFor(score int) StrengthLevel {
	if score < 0 {
		score = 0
	}
	if score >= len(strengthLevels) {
		score = len(strengthLevels) - 1
	}
	return strengthLevels[score]
}

// MessageKey maps a validation failure to the form message shown for it.
func MessageKey(err error) i18n.Key {
	var ve *xerrors.ValidationError
	if !errors.As(err, &ve) {
		return i18n.RequestFailedDetail
	}
	switch ve.Rule {
	case "required":
		return i18n.RequiredFields
	case "shape":
		return i18n.InvalidEmail
	case "saudi_mobile":
		return i18n.InvalidPhone
	case "min_length":
		return i18n.ShortPassword
	case "mismatch":
		return i18n.PasswordMismatch
	}
	return i18n.RequestFailedDetail
}

// Key is the catalog entry for the level's label.
func (l StrengthLevel) Key() i18n.Key {
	return i18n.Key("strength." + string(l))
}
