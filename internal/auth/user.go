package auth

import (
	"regexp"
	"strconv"
	"time"
)

// usernamePattern allows letters, digits, dots, hyphens and underscores.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// User is a registered account able to obtain bearer tokens.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Subject is the token subject for u: its decimal id.
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}

// ValidateCredentials checks registration input.
func ValidateCredentials(username, password string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
