package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/ama-bakery/staff_terminal/internal/staff"
)

// Directory drivers.
const (
	DirectoryMemory   = "memory"
	DirectoryPostgres = "postgres"
	DirectorySQLite   = "sqlite"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `env:"APP_NAME, default=AmaBakery"`
	AppEnv   string `env:"APP_ENV, default=development"`
	Port     string `env:"PORT, default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DatabaseURL     string `env:"DATABASE_URL"`
	RedisURL        string `env:"REDIS_URL"`
	DirectoryDriver string `env:"DIRECTORY_DRIVER, default=memory"`
	SQLitePath      string `env:"SQLITE_PATH, default=var/staff.db"`
	SeedDemoStaff   bool   `env:"SEED_DEMO_STAFF, default=false"`

	LoginRole        string        `env:"LOGIN_ROLE, default=waiter"`
	PinClearDelay    time.Duration `env:"PIN_CLEAR_DELAY, default=500ms"`
	MaxLoginAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=1024"`

	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

// Load reads configuration values from the process environment.
func Load(ctx context.Context) (Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.DirectoryDriver = strings.ToLower(cfg.DirectoryDriver)

	if _, err := staff.ParseRole(cfg.LoginRole); err != nil {
		return Config{}, fmt.Errorf("invalid LOGIN_ROLE: %w", err)
	}
	if cfg.PinClearDelay < 0 || cfg.PinClearDelay >= time.Second {
		return Config{}, fmt.Errorf("PIN_CLEAR_DELAY must be between 0 and 1s, got %s", cfg.PinClearDelay)
	}

	if cfg.MaxLoginAttempts < 1 {
		return Config{}, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", cfg.MaxLoginAttempts)
	}

	switch cfg.DirectoryDriver {
	case DirectoryMemory, DirectorySQLite:
	case DirectoryPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set for DIRECTORY_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown DIRECTORY_DRIVER %q", cfg.DirectoryDriver)
	}

	if !cfg.IsDevelopment() && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

// Role is the role terminals verify against.
func (c Config) Role() staff.Role {
	r, err := staff.ParseRole(c.LoginRole)
	if err != nil {
		return staff.RoleWaiter
	}
	return r
}

// DemoRoster reports whether the directory serves the built-in demo staff.
func (c Config) DemoRoster() bool {
	return c.DirectoryDriver == DirectoryMemory || c.SeedDemoStaff
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
