package ports

import (
	"context"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// LoginInput carries the credentials of a login attempt. ClientIP only feeds
// the failed-attempt throttle.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResult is the verified user together with a freshly minted pair.
type LoginResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Authenticate verifies an access token and resolves the current principal.
	Authenticate(ctx context.Context, accessToken string) (domain.Principal, error)
}

// TokenIssuer mints and verifies signed tokens.
type TokenIssuer interface {
	Issue(u *domain.User) (domain.TokenPair, error)
	IssueAccess(userID int64) (string, error)
	Parse(raw string, want domain.TokenType) (*domain.TokenClaims, error)
}
