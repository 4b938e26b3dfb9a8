package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scmportal/accounts-api/internal/api/middleware"
	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn        func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	refreshFn      func(ctx context.Context, refresh string) (string, error)
	authenticateFn func(ctx context.Context, access string) (domain.Principal, error)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	return s.refreshFn(ctx, refresh)
}

func (s *stubAuthService) Authenticate(ctx context.Context, access string) (domain.Principal, error) {
	return s.authenticateFn(ctx, access)
}

type stubUserService struct {
	listFn   func(ctx context.Context, actor domain.Principal) ([]*domain.User, error)
	getFn    func(ctx context.Context, actor domain.Principal, id int64) (*domain.User, error)
	createFn func(ctx context.Context, actor domain.Principal, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, actor domain.Principal, id int64) error
}

func (s *stubUserService) List(ctx context.Context, actor domain.Principal) ([]*domain.User, error) {
	return s.listFn(ctx, actor)
}

func (s *stubUserService) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.User, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubUserService) Create(ctx context.Context, actor domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubUserService) Update(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubUserService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubUserService) CreateSuperuser(context.Context, ports.CreateSuperuserInput) (*domain.User, error) {
	panic("not used by handlers")
}

type stubRoleService struct {
	listFn   func(ctx context.Context, actor domain.Principal) ([]*domain.Role, error)
	getFn    func(ctx context.Context, actor domain.Principal, id int64) (*domain.Role, error)
	createFn func(ctx context.Context, actor domain.Principal, in ports.CreateRoleInput) (*domain.Role, error)
	updateFn func(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateRoleInput) (*domain.Role, error)
	deleteFn func(ctx context.Context, actor domain.Principal, id int64) error
}

func (s *stubRoleService) List(ctx context.Context, actor domain.Principal) ([]*domain.Role, error) {
	return s.listFn(ctx, actor)
}

func (s *stubRoleService) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Role, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubRoleService) Create(ctx context.Context, actor domain.Principal, in ports.CreateRoleInput) (*domain.Role, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubRoleService) Update(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateRoleInput) (*domain.Role, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubRoleService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	return s.deleteFn(ctx, actor, id)
}

var admin = domain.Principal{UserID: 1, Email: "admin@scm.test", RoleName: domain.RoleSCMAdmin, IsActive: true}

// newContext builds an echo context for method/target with an optional JSON
// body. When actor is non-nil it is injected as if Auth had run.
func newContext(method, target, body string, actor *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		middleware.SetPrincipal(c, *actor)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}
