package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
	"github.com/scmportal/accounts-api/internal/core/service"
	redisstore "github.com/scmportal/accounts-api/internal/infrastructure/db/redis"
)

// singleUserRepo holds at most one user.
type singleUserRepo struct {
	ports.UserRepository
	user domain.User
}

func (r *singleUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if r.user.ID == 0 || id != r.user.ID {
		return nil, domain.ErrUserNotFound
	}
	u := r.user
	return &u, nil
}

func (r *singleUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user.ID == 0 || !strings.EqualFold(email, r.user.Email) {
		return nil, domain.ErrUserNotFound
	}
	u := r.user
	return &u, nil
}

func (r *singleUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.user = *u
	out := *u
	return &out, nil
}

type singleUserStore struct {
	ports.Store
	users *singleUserRepo
}

func (s *singleUserStore) Users() ports.UserRepository { return s.users }

func (s *singleUserStore) WithTx(_ context.Context, fn func(ports.Store) error) error {
	return fn(s)
}

func TestRouter_UserReplaceRequiresNameAndEmail(t *testing.T) {
	repo := &singleUserRepo{user: domain.User{ID: 5, Email: "kim@example.com", Name: "Kim", IsActive: true}}
	e := newTestRouter(func(d *Deps) {
		d.Users = service.NewUserService(&singleUserStore{users: repo}, nil, zerolog.Nop())
	})

	rec := do(e, http.MethodPut, "/api/users/5/", "admin", `{"is_active":false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Fields["name"] != "This field is required." || body.Fields["email"] != "This field is required." {
		t.Fatalf("expected name and email required, got %+v", body)
	}
	if !repo.user.IsActive {
		t.Fatalf("rejected PUT must not change the user")
	}

	rec = do(e, http.MethodPatch, "/api/users/5/", "admin", `{"is_active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.user.IsActive || repo.user.Name != "Kim" {
		t.Fatalf("PATCH must only change is_active: %+v", repo.user)
	}

	rec = do(e, http.MethodPut, "/api/users/5/", "admin", `{"name":"Kim Lee","email":"kim.lee@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.user.Name != "Kim Lee" || repo.user.Email != "kim.lee@example.com" {
		t.Fatalf("PUT not applied: %+v", repo.user)
	}
}

func TestRouter_LoginThrottleIgnoresForwardedFor(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	auth := service.NewAuthService(
		&singleUserRepo{},
		service.NewTokenService("test-secret", time.Minute, time.Hour),
		redisstore.NewLoginThrottle(rdb, 3, time.Minute),
		zerolog.Nop(),
	)
	e := newTestRouter(func(d *Deps) { d.Auth = auth })

	forwarded := []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4"}
	for i, xff := range forwarded {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login/", strings.NewReader(`{"email":"ghost@example.com","password":"guess"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderXForwardedFor, xff)
		req.Header.Set(echo.HeaderXRealIP, xff)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		want := http.StatusUnauthorized
		if i == len(forwarded)-1 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("attempt %d (X-Forwarded-For %s): expected %d, got %d", i+1, xff, want, rec.Code)
		}
	}
}

func TestClientIPExtractor(t *testing.T) {
	realIP := func(ext echo.IPExtractor, remote, xff string) string {
		e := echo.New()
		e.IPExtractor = ext
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set(echo.HeaderXForwardedFor, xff)
		return e.NewContext(req, httptest.NewRecorder()).RealIP()
	}

	direct, err := ClientIPExtractor(nil)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	if got := realIP(direct, "10.0.0.5:4000", "203.0.113.7"); got != "10.0.0.5" {
		t.Fatalf("expected peer address without trusted proxies, got %s", got)
	}

	proxied, err := ClientIPExtractor([]string{"10.0.0.0/8", "192.0.2.10"})
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	if got := realIP(proxied, "10.0.0.5:4000", "203.0.113.7"); got != "203.0.113.7" {
		t.Fatalf("expected forwarded address from trusted proxy, got %s", got)
	}
	if got := realIP(proxied, "192.0.2.10:4000", "203.0.113.8"); got != "203.0.113.8" {
		t.Fatalf("expected forwarded address from trusted single proxy, got %s", got)
	}
	if got := realIP(proxied, "198.51.100.9:4000", "203.0.113.7"); got != "198.51.100.9" {
		t.Fatalf("expected untrusted peer address, got %s", got)
	}

	if _, err := ClientIPExtractor([]string{"not-an-ip"}); err == nil {
		t.Fatalf("expected error for invalid proxy entry")
	}
}
