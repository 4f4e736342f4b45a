package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StoreSupabase = "supabase"
)

// Email transports.
const (
	EmailSimulated = "simulated"
	EmailResend    = "resend"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Email     EmailConfig     `mapstructure:"email"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// AuthConfig holds API key authentication settings.
// No keys means the API is open.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// EmailConfig selects the transport behind the email strategy.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds ingress rate limiting settings. Zero rps disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// DispatchConfig controls how the dispatcher runs attempts.
type DispatchConfig struct {
	Parallel       bool `mapstructure:"parallel"`
	MaxConcurrency int  `mapstructure:"max_concurrency"`
}

// StoreConfig selects the audit store backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// SupabaseConfig holds Supabase project settings.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// DirectoryConfig selects the recipient source. An empty path uses the built-in fixture.
type DirectoryConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the FANOUT_ prefix and underscore separators.
// Example: FANOUT_STORE_DRIVER overrides store.driver in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	v.SetEnvPrefix("FANOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("email.provider", EmailSimulated)
	v.SetDefault("email.from_address", "")
	v.SetDefault("email.from_name", "Editorial Team")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("dispatch.parallel", false)
	v.SetDefault("dispatch.max_concurrency", 8)
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.sqlite_path", "data/fanout.db")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "fanout:audit:entries")
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("directory.path", "")
	v.SetDefault("directory.watch", false)
	v.SetDefault("metrics.enabled", true)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Env vars arrive as one comma-separated string; normalize both forms.
	cfg.Auth.APIKeys = splitList(strings.Join(cfg.Auth.APIKeys, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown driver names and inconsistent settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StoreSQLite, StoreRedis, StoreSupabase:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.Store.Driver == StoreSQLite && strings.TrimSpace(c.Store.SQLitePath) == "" {
		errs = append(errs, errors.New("store.sqlite_path: required for sqlite driver"))
	}
	if c.Store.Driver == StoreSupabase && (c.Supabase.URL == "" || c.Supabase.ServiceKey == "") {
		errs = append(errs, errors.New("supabase: url and service_key are required for supabase driver"))
	}

	switch c.Email.Provider {
	case EmailSimulated:
	case EmailResend:
		if c.Email.APIKey == "" || c.Email.FromAddress == "" {
			errs = append(errs, errors.New("email: api_key and from_address are required for resend"))
		}
	default:
		errs = append(errs, fmt.Errorf("email.provider: unknown provider %q", c.Email.Provider))
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_second: must not be negative"))
	}
	if c.Dispatch.MaxConcurrency < 0 {
		errs = append(errs, errors.New("dispatch.max_concurrency: must not be negative"))
	}
	if c.Directory.Watch && c.Directory.Path == "" {
		errs = append(errs, errors.New("directory.watch: requires directory.path"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
