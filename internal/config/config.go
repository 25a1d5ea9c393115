// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

const (
	PolicyAllow = "allow"
	PolicyDeny  = "deny"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Gateway    GatewayConfig    `koanf:"gateway"`
	Session    SessionConfig    `koanf:"session"`
	Database   DatabaseConfig   `koanf:"database"`
	SQLite     SQLiteConfig     `koanf:"sqlite"`
	Redis      RedisConfig      `koanf:"redis"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Guard      GuardConfig      `koanf:"guard"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
	DevGateway DevGatewayConfig `koanf:"dev_gateway"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// GatewayConfig points at the remote food-delivery API.
type GatewayConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	LoginPath    string        `koanf:"login_path"`
	RegisterPath string        `koanf:"register_path"`
	ApprovalPath string        `koanf:"approval_path"`
	ProfilePath  string        `koanf:"profile_path"`
	HealthPath   string        `koanf:"health_path"`
	AdminPath    string        `koanf:"admin_restaurants_path"`
}

type SessionConfig struct {
	CookieName     string        `koanf:"cookie_name"`
	CookieSecure   bool          `koanf:"cookie_secure"`
	Storage        string        `koanf:"storage"`
	TTL            time.Duration `koanf:"ttl"`
	EncryptionKey  string        `koanf:"encryption_key"`
	PurgeInterval  time.Duration `koanf:"purge_interval"`
	ClientIDMaxAge time.Duration `koanf:"client_id_max_age"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

// GuardConfig selects what the approval gate does when it cannot get
// an answer from the gateway.
type GuardConfig struct {
	ApprovalOnError   string `koanf:"approval_on_error"`
	ApprovalOnMissing string `koanf:"approval_on_missing"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type DevGatewayConfig struct {
	Addr     string        `koanf:"addr"`
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Food Delivery Web",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"gateway.base_url":      "http://localhost:9090",
		"gateway.timeout":       "10s",
		"gateway.login_path":    "/api/auth/login",
		"gateway.register_path": "/api/auth/register",
		"gateway.approval_path": "/api/restaurantes/mi-estado",
		"gateway.profile_path":  "/api/usuarios/perfil",
		"gateway.health_path":   "/health",

		"gateway.admin_restaurants_path": "/api/admin/restaurantes",

		"session.cookie_name":       "fd_client",
		"session.cookie_secure":     false,
		"session.storage":           StorageMemory,
		"session.ttl":               "24h",
		"session.purge_interval":    "10m",
		"session.client_id_max_age": "720h",

		"database.max_open_conns":     10,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"sqlite.path": "fdweb.db",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"rate_limit.requests": 10,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    5,

		"guard.approval_on_error":   PolicyAllow,
		"guard.approval_on_missing": PolicyAllow,

		"log.level":  "info",
		"log.format": "text",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "fdweb",

		"dev_gateway.addr":      "127.0.0.1:9090",
		"dev_gateway.secret":    "dev-gateway-secret",
		"dev_gateway.token_ttl": "8h",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"GATEWAY_URL":                 "gateway.base_url",
	"GATEWAY_TIMEOUT":             "gateway.timeout",
	"SESSION_STORAGE":             "session.storage",
	"SESSION_TTL":                 "session.ttl",
	"SESSION_COOKIE_SECURE":       "session.cookie_secure",
	"SESSION_ENCRYPTION_KEY":      "session.encryption_key",
	"DATABASE_URL":                "database.url",
	"SQLITE_PATH":                 "sqlite.path",
	"REDIS_URL":                   "redis.url",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"GUARD_APPROVAL_ON_ERROR":     "guard.approval_on_error",
	"GUARD_APPROVAL_ON_MISSING":   "guard.approval_on_missing",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"DEV_GATEWAY_ADDR":            "dev_gateway.addr",
	"DEV_GATEWAY_SECRET":          "dev_gateway.secret",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("GATEWAY_URL is required")
	}

	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.base_url must be an absolute URL")
	}

	switch c.Session.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for redis session storage")
		}
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres session storage")
		}
	case StorageSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite session storage")
		}
	default:
		return fmt.Errorf("unknown session storage %q", c.Session.Storage)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if !validPolicy(c.Guard.ApprovalOnError) {
		return fmt.Errorf("guard.approval_on_error must be %q or %q", PolicyAllow, PolicyDeny)
	}

	if !validPolicy(c.Guard.ApprovalOnMissing) {
		return fmt.Errorf("guard.approval_on_missing must be %q or %q", PolicyAllow, PolicyDeny)
	}

	if c.App.Environment == "production" {
		if !c.Session.CookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
		if c.Session.Storage != StorageMemory && c.Session.EncryptionKey == "" {
			return fmt.Errorf("SESSION_ENCRYPTION_KEY is required for shared storage in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.burst must be positive")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func validPolicy(p string) bool {
	p = strings.ToLower(p)
	return p == PolicyAllow || p == PolicyDeny
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
