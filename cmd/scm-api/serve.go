package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scmportal/accounts-api/internal/api"
	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/service"
	"github.com/scmportal/accounts-api/internal/infrastructure/db/postgres"
	"github.com/scmportal/accounts-api/internal/infrastructure/db/redis"
	"github.com/scmportal/accounts-api/internal/pkg/telemetry"
	"github.com/scmportal/accounts-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	log := logger.Get()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, version, cfg.Telemetry.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	if b.pool != nil {
		prometheus.MustRegister(postgres.NewPoolStatsCollector(b.pool))
	}

	var (
		rdb      *goredis.Client
		throttle service.LoginThrottle = service.NopThrottle{}
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		throttle = redis.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	} else {
		log.Warn().Msg("REDIS_ADDR is not set; login throttling disabled")
	}

	ipExtractor, err := api.ClientIPExtractor(cfg.HTTP.TrustedProxies)
	if err != nil {
		return err
	}

	policy := domain.DefaultPolicy()
	tokens := service.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	e := api.NewRouter(api.Deps{
		Log:                log,
		Auth:               service.NewAuthService(b.store.Users(), tokens, throttle, log),
		Users:              service.NewUserService(b.store, policy, log),
		Roles:              service.NewRoleService(b.store.Roles(), policy, log),
		Policy:             policy,
		Store:              b.store,
		Redis:              rdb,
		AllowedHosts:       cfg.HTTP.AllowedHosts,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		IPExtractor:        ipExtractor,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, appName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
		return err
	}
	return nil
}
