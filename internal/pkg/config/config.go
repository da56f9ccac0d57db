package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo         MongoConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Identity      IdentityConfig
	Impersonation ImpersonationConfig
	Audit         AuditConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=labdesk"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type AuthConfig struct {
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	SessionTTL      time.Duration `env:"SESSION_TTL,       default=168h"`

	// Optional administrator created at startup when absent.
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

type IdentityConfig struct {
	ResolveTimeout time.Duration `env:"IDENTITY_RESOLVE_TIMEOUT, default=5s"`
}

type ImpersonationConfig struct {
	TTL time.Duration `env:"IMPERSONATION_TTL, default=1h"`
	// FunctionsBaseURL points at the service hosting the impersonation
	// functions. Empty means this process.
	FunctionsBaseURL string        `env:"FUNCTIONS_BASE_URL"`
	RequestTimeout   time.Duration `env:"FUNCTIONS_TIMEOUT, default=10s"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves the configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.BootstrapAdminEmail != "" && c.Auth.BootstrapAdminPassword == "" {
		return errors.New("BOOTSTRAP_ADMIN_PASSWORD is required with BOOTSTRAP_ADMIN_EMAIL")
	}
	return nil
}

// FunctionsURL returns the base URL of the impersonation functions.
func (c *Config) FunctionsURL() string {
	if c.Impersonation.FunctionsBaseURL != "" {
		return c.Impersonation.FunctionsBaseURL
	}
	return "http://localhost:" + c.Port
}
