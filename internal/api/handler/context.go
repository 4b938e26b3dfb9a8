package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scmportal/accounts-api/internal/api/middleware"
	"github.com/scmportal/accounts-api/internal/core/domain"
)

// principalFrom returns the caller injected by the Auth middleware. A missing
// principal means the route was mounted without Auth and fails with 401.
func principalFrom(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return p, nil
}

// pathID parses the :id route parameter. Non-numeric ids do not match any
// resource and yield 404.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return id, nil
}
