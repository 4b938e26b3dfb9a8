package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AllowedHosts rejects requests whose Host header is not listed. "*" allows
// any host; an entry starting with "." matches the domain and its subdomains.
func AllowedHosts(hosts []string) echo.MiddlewareFunc {
	patterns := make([]string, 0, len(hosts))
	allowAll := false
	for _, h := range hosts {
		h = strings.Trim(strings.ToLower(strings.TrimSpace(h)), "[]")
		switch h {
		case "":
			continue
		case "*":
			allowAll = true
		}
		patterns = append(patterns, h)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if allowAll || hostAllowed(requestHost(c.Request().Host), patterns) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Bad Request (400)")
		}
	}
}

func requestHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.Trim(host, "[]"), ".")
}

func hostAllowed(host string, patterns []string) bool {
	if host == "" {
		return false
	}
	for _, p := range patterns {
		if strings.HasPrefix(p, ".") {
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
			continue
		}
		if host == p {
			return true
		}
	}
	return false
}
