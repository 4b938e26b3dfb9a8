package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// InsecureDevSecret is used when SECRET_KEY is unset outside production.
const InsecureDevSecret = "django-insecure-dev-key-change-me-in-production"

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Debug    bool   `env:"DEBUG,     default=false"`

	// StoreDriver selects the user/role store: postgres or mongo.
	StoreDriver string `env:"STORE_DRIVER, default=postgres"`

	Auth      AuthConfig
	HTTP      HTTPConfig
	Postgres  PostgresConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type AuthConfig struct {
	SecretKey        string        `env:"SECRET_KEY"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL,   default=60m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL,  default=24h"`
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type HTTPConfig struct {
	AllowedHosts       []string `env:"ALLOWED_HOSTS,        default=localhost,127.0.0.1"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000,http://127.0.0.1:3000"`
	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type PostgresConfig struct {
	Host     string `env:"DB_HOST,     default=localhost"`
	Port     int    `env:"DB_PORT,     default=5432"`
	Name     string `env:"DB_NAME,     default=scm_portal"`
	User     string `env:"DB_USER,     default=postgres"`
	Password string `env:"DB_PASSWORD"`
	SSLMode  string `env:"DB_SSLMODE,  default=disable"`
	MaxConns int32  `env:"DB_MAX_CONNS, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=scm_portal"`
}

// RedisConfig is optional; an empty Addr disables the login throttle.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME, default=scm-accounts-api"`
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes cfg from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsingInsecureSecret reports whether the development fallback key is active.
func (c *Config) UsingInsecureSecret() bool {
	return c.Auth.SecretKey == InsecureDevSecret
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver != DriverPostgres && c.StoreDriver != DriverMongo {
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMongo, c.StoreDriver)
	}
	if c.Auth.SecretKey == "" {
		if c.IsProduction() {
			return errors.New("config: SECRET_KEY is required in production")
		}
		c.Auth.SecretKey = InsecureDevSecret
	}
	return nil
}
