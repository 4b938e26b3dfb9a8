package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// Require enforces that the authenticated principal's role holds perm.
// It must run after Auth.
func Require(policy *domain.Policy, perm domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
			}
			if err := policy.Authorize(principal, perm); err != nil {
				return err
			}
			return next(c)
		}
	}
}
