package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
)

// Service registers accounts and exchanges credentials for bearer tokens.
type Service struct {
	users    UserRepository
	hasher   *PasswordHasher
	issuer   *TokenIssuer
	throttle Throttle
	logger   *logging.Logger
}

// ServiceDeps holds Service collaborators. Throttle may be nil.
type ServiceDeps struct {
	Users    UserRepository
	Hasher   *PasswordHasher
	Issuer   *TokenIssuer
	Throttle Throttle
	Logger   *logging.Logger
}

// NewService creates a Service.
func NewService(deps ServiceDeps) *Service {
	if deps.Hasher == nil {
		deps.Hasher = NewPasswordHasher(DefaultArgon2Params)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	return &Service{
		users:    deps.Users,
		hasher:   deps.Hasher,
		issuer:   deps.Issuer,
		throttle: deps.Throttle,
		logger:   deps.Logger,
	}
}

// Register validates and stores a new account.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token whose subject is the
// user's id. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if s.throttle != nil {
		if err := s.throttle.Acquire(ctx, username); err != nil {
			if errors.Is(err, ErrTooManyAttempts) {
				return "", err
			}
			// Fail open when the throttle store is unreachable.
			s.logger.Warn("login throttle unavailable", "error", err)
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.logger.Warn("login throttle reset failed", "error", err)
		}
	}

	return s.issuer.Issue(user.Subject())
}
