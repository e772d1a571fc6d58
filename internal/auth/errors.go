package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for account and token operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password too short")
	ErrTokenCreation      = errors.New("token creation failed")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrMalformedHash      = errors.New("malformed password hash")
)

// Kind classifies a rejected credential.
type Kind int

const (
	// KindNoCredential means the Authorization header was absent or empty.
	KindNoCredential Kind = iota + 1
	// KindMalformedCredential means the header lacked the "Bearer " scheme.
	KindMalformedCredential
	// KindInvalidToken covers bad signatures, wrong algorithms, garbage and expiry.
	KindInvalidToken
)

func (k Kind) String() string {
	switch k {
	case KindNoCredential:
		return "missing credential"
	case KindMalformedCredential:
		return "malformed credential"
	case KindInvalidToken:
		return "invalid token"
	default:
		return "unknown"
	}
}

// Error is returned by every Gate and TokenIssuer verification failure.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same Kind, so callers can write
// errors.Is(err, &auth.Error{Kind: auth.KindInvalidToken}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
