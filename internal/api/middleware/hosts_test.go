package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAllowedHosts(t *testing.T) {
	cases := []struct {
		hosts []string
		host  string
		ok    bool
	}{
		{[]string{"localhost", "127.0.0.1"}, "localhost:8000", true},
		{[]string{"localhost", "127.0.0.1"}, "127.0.0.1", true},
		{[]string{"localhost"}, "LOCALHOST", true},
		{[]string{"localhost"}, "evil.example.com", false},
		{[]string{".example.com"}, "api.example.com", true},
		{[]string{".example.com"}, "example.com", true},
		{[]string{".example.com"}, "badexample.com", false},
		{[]string{"*"}, "anything.test", true},
		{[]string{"[::1]"}, "[::1]:8000", true},
		{[]string{"::1"}, "[::1]:8000", true},
		{nil, "localhost", false},
	}

	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tc.host
		c := e.NewContext(req, httptest.NewRecorder())

		called := false
		err := AllowedHosts(tc.hosts)(func(c echo.Context) error {
			called = true
			return nil
		})(c)

		if called != tc.ok {
			t.Fatalf("hosts=%v host=%q: expected allowed=%v, got %v (err=%v)", tc.hosts, tc.host, tc.ok, called, err)
		}
		if !tc.ok {
			if code := statusOf(t, err); code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
		}
	}
}
