package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// tokenClaims is the JWT payload for both token types.
type tokenClaims struct {
	TokenType domain.TokenType `json:"token_type"`
	UserID    int64            `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 access/refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = domain.DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = domain.DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue mints an access/refresh pair for u.
func (s *TokenService) Issue(u *domain.User) (domain.TokenPair, error) {
	refresh, err := s.sign(u.ID, domain.TokenRefresh, s.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	access, err := s.sign(u.ID, domain.TokenAccess, s.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a single access token for userID.
func (s *TokenService) IssueAccess(userID int64) (string, error) {
	return s.sign(userID, domain.TokenAccess, s.accessTTL)
}

// Parse verifies raw and checks that it is of type want. Any failure is
// reported as domain.ErrInvalidToken.
func (s *TokenService) Parse(raw string, want domain.TokenType) (*domain.TokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", domain.ErrInvalidToken, want, claims.TokenType)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", domain.ErrInvalidToken)
	}

	out := &domain.TokenClaims{
		UserID: claims.UserID,
		Type:   claims.TokenType,
		ID:     claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *TokenService) sign(userID int64, typ domain.TokenType, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token service: empty signing secret")
	}
	now := s.now()
	claims := tokenClaims{
		TokenType: typ,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}
