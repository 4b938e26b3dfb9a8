package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

// tokenAuth resolves fixed access tokens to principals.
type tokenAuth map[string]domain.Principal

func (a tokenAuth) Login(_ context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Password != "correct-horse" {
		return nil, domain.ErrInvalidCredentials
	}
	return &ports.LoginResult{
		User:   &domain.User{ID: 1, Email: in.Email, IsActive: true, Role: &domain.Role{ID: 1, Name: domain.RoleSCMAdmin}},
		Tokens: domain.TokenPair{Access: "admin", Refresh: "refresh"},
	}, nil
}

func (a tokenAuth) Refresh(_ context.Context, refresh string) (string, error) {
	if refresh != "refresh" {
		return "", domain.ErrInvalidToken
	}
	return "admin", nil
}

func (a tokenAuth) Authenticate(_ context.Context, access string) (domain.Principal, error) {
	p, ok := a[access]
	if !ok {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	return p, nil
}

type fakeUsers struct{ ports.UserService }

func (fakeUsers) List(context.Context, domain.Principal) ([]*domain.User, error) {
	return []*domain.User{{ID: 1, Email: "admin@scm.test", IsActive: true}}, nil
}

func (fakeUsers) Create(_ context.Context, _ domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	if in.Password == "" {
		return nil, domain.NewValidationError("password", "This field is required.")
	}
	return &domain.User{ID: 2, Email: in.Email, IsActive: true}, nil
}

func (fakeUsers) Delete(context.Context, domain.Principal, int64) error {
	return domain.ErrUserNotFound
}

type fakeRoles struct{ ports.RoleService }

func (fakeRoles) Delete(context.Context, domain.Principal, int64) error {
	return domain.ErrRoleInUse
}

type fakeStore struct{ ports.Store }

func (fakeStore) Ping(context.Context) error { return nil }

func newTestRouter(opts ...func(*Deps)) *echo.Echo {
	reg := prometheus.NewRegistry()
	d := Deps{
		Log: zerolog.Nop(),
		Auth: tokenAuth{
			"admin": {UserID: 1, RoleName: domain.RoleSCMAdmin, IsActive: true},
			"sales": {UserID: 2, RoleName: domain.RoleSalesEngineer, IsActive: true},
		},
		Users:              fakeUsers{},
		Roles:              fakeRoles{},
		Store:              fakeStore{},
		AllowedHosts:       []string{"localhost", "example.com"},
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		Registerer:         reg,
		Gatherer:           reg,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return NewRouter(d)
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestRouter_Login(t *testing.T) {
	e := newTestRouter()

	rec := do(e, http.MethodPost, "/api/auth/login/", "", `{"email":"admin@scm.test","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/auth/login/", "", `{"email":"admin@scm.test","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "Invalid email or password." {
		t.Fatalf("expected 401 invalid credentials, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/auth/login/", "", `{"email":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest || errorOf(t, rec) != "validation failed" {
		t.Fatalf("expected 400 validation failed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Refresh(t *testing.T) {
	e := newTestRouter()

	rec := do(e, http.MethodPost, "/api/auth/token/refresh/", "", `{"refresh":"refresh"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/auth/token/refresh/", "", `{"refresh":"admin"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_UsersAccessControl(t *testing.T) {
	e := newTestRouter()

	if rec := do(e, http.MethodGet, "/api/users/", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/users/", "expired", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/api/users/", "sales", "")
	if rec.Code != http.StatusForbidden || errorOf(t, rec) != domain.ErrForbidden.Error() {
		t.Fatalf("sales: expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodDelete, "/api/users/2/", "sales", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("sales delete: expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/users/", "admin", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
}

func TestRouter_UsersErrors(t *testing.T) {
	e := newTestRouter()

	rec := do(e, http.MethodPost, "/api/users/", "admin", `{"email":"x@scm.test"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Fields["password"] == "" {
		t.Fatalf("expected password field error, got %s", rec.Body.String())
	}

	if rec := do(e, http.MethodPost, "/api/users/", "admin", `{"email":"x@scm.test","password":"longenough"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/users/99/", "admin", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/roles/1/", "admin", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRouter_AllowedHosts(t *testing.T) {
	e := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Host = "attacker.test"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown host, got %d", rec.Code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	e := newTestRouter()

	for _, path := range []string{"/health", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Host = "localhost:8000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Host = "localhost"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "scm_http_requests_total") {
		t.Fatalf("expected request metrics, got %d", rec.Code)
	}
}
