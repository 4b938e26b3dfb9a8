package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated caller on the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller stored by Auth. ok is false when the
// request did not pass through Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}
