package domain

import "time"

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 60 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// TokenPair is returned on login. Tokens are never persisted.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenClaims is the identity carried by a verified token.
type TokenClaims struct {
	UserID    int64
	Type      TokenType
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
