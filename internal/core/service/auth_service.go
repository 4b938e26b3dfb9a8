package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

// LoginThrottle abstracts the failed-login counter (Redis).
type LoginThrottle interface {
	// Allow reports whether key may attempt another login.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset clears the counter for key after a successful login.
	Reset(ctx context.Context, key string) error
}

// NopThrottle never blocks. Used when no Redis is configured.
type NopThrottle struct{}

func (NopThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
func (NopThrottle) Fail(context.Context, string) error          { return nil }
func (NopThrottle) Reset(context.Context, string) error         { return nil }

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the email is unknown, so a miss
// costs the same bcrypt work as a wrong password.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// AuthService implements login, refresh and per-request authentication.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenIssuer
	throttle LoginThrottle
	log      zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenIssuer, throttle LoginThrottle, log zerolog.Logger) *AuthService {
	if throttle == nil {
		throttle = NopThrottle{}
	}
	return &AuthService{users: users, tokens: tokens, throttle: throttle, log: log}
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	key := throttleKey(email, in.ClientIP)
	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
	} else if !allowed {
		s.log.Warn().Str("email", email).Str("ip", in.ClientIP).Msg("login throttled")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(in.Password))
		s.fail(ctx, key, email)
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.fail(ctx, key, email)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Warn().Int64("user_id", user.ID).Msg("login refused for disabled account")
		return nil, domain.ErrAccountDisabled
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: issue tokens: %w", err)
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login throttle reset failed")
	}

	s.log.Info().Int64("user_id", user.ID).Msg("login successful")
	return &ports.LoginResult{User: user, Tokens: pair}, nil
}

// Refresh verifies a refresh token and mints a new access token for the
// same user, provided the account still exists and is active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, domain.TokenRefresh)
	if err != nil {
		return "", err
	}
	if _, err := s.activeUser(ctx, claims.UserID); err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(claims.UserID)
}

// Authenticate resolves the principal behind an access token. The user is
// reloaded so deactivation and role changes take effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.Principal, error) {
	claims, err := s.tokens.Parse(accessToken, domain.TokenAccess)
	if err != nil {
		return domain.Principal{}, err
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.PrincipalOf(user), nil
}

func (s *AuthService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	return user, nil
}

func (s *AuthService) fail(ctx context.Context, key, email string) {
	s.log.Warn().Str("email", email).Msg("login failed")
	if err := s.throttle.Fail(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login throttle record failed")
	}
}

func throttleKey(email, ip string) string {
	return strings.ToLower(email) + "|" + ip
}
