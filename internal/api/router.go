package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/scmportal/accounts-api/docs"
	"github.com/scmportal/accounts-api/internal/api/handler"
	"github.com/scmportal/accounts-api/internal/api/middleware"
	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log    zerolog.Logger
	Auth   ports.AuthService
	Users  ports.UserService
	Roles  ports.RoleService
	Policy *domain.Policy
	Store  ports.Store
	// Redis is optional; nil skips the Redis readiness check.
	Redis *redis.Client

	AllowedHosts       []string
	CORSAllowedOrigins []string
	// IPExtractor resolves c.RealIP; nil uses the peer address only.
	IPExtractor echo.IPExtractor

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Policy == nil {
		d.Policy = domain.DefaultPolicy()
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.IPExtractor == nil {
		d.IPExtractor = echo.ExtractIPDirect()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = d.IPExtractor
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(middleware.AllowedHosts(d.AllowedHosts))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "scm",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		DoNotUseRequestPathFor404: true,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Store, d.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness
	e.GET("/health/ready", readinessHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	api := e.Group("/api")

	authHandler := handler.NewAuthHandler(d.Auth)
	api.POST("/auth/login/", authHandler.Login)
	api.POST("/auth/token/refresh/", authHandler.Refresh)

	authn := middleware.Auth(d.Auth)
	can := func(perm domain.Permission) echo.MiddlewareFunc {
		return middleware.Require(d.Policy, perm)
	}

	users := api.Group("/users", authn)
	userHandler := handler.NewUserHandler(d.Users)
	users.GET("/", userHandler.List, can(domain.PermUsersList))
	users.POST("/", userHandler.Create, can(domain.PermUsersCreate))
	users.GET("/:id/", userHandler.Get, can(domain.PermUsersRead))
	users.PUT("/:id/", userHandler.Replace, can(domain.PermUsersUpdate))
	users.PATCH("/:id/", userHandler.Update, can(domain.PermUsersUpdate))
	users.DELETE("/:id/", userHandler.Delete, can(domain.PermUsersDelete))

	roles := api.Group("/roles", authn)
	roleHandler := handler.NewRoleHandler(d.Roles)
	roles.GET("/", roleHandler.List, can(domain.PermRolesList))
	roles.POST("/", roleHandler.Create, can(domain.PermRolesCreate))
	roles.GET("/:id/", roleHandler.Get, can(domain.PermRolesRead))
	roles.PATCH("/:id/", roleHandler.Update, can(domain.PermRolesUpdate))
	roles.DELETE("/:id/", roleHandler.Delete, can(domain.PermRolesDelete))

	return e
}

// ClientIPExtractor builds the extractor for c.RealIP. Without trusted
// proxies forwarding headers are ignored. Otherwise X-Forwarded-For is
// honoured only through the listed ranges (CIDR or bare IP).
func ClientIPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range trustedProxies {
		p = strings.TrimSpace(p)
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid address", p)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			p = fmt.Sprintf("%s/%d", p, bits)
		}
		_, ipNet, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}
