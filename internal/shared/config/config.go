package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Access       AccessConfig       `mapstructure:"access"`
	Invitation   InvitationConfig   `mapstructure:"invitation"`
	Approval     ApprovalConfig     `mapstructure:"approval"`
	Notification NotificationConfig `mapstructure:"notification"`
	Store        StoreConfig        `mapstructure:"store"`
	Triggers     TriggersConfig     `mapstructure:"triggers"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// InternalToken guards the trigger and job endpoints.
	InternalToken  string        `mapstructure:"internal_token"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// AuthConfig holds access token validation settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	Leeway    time.Duration `mapstructure:"leeway"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AccessConfig holds role resolution settings.
type AccessConfig struct {
	// UnknownRolePolicy is "viewer" or "deny".
	UnknownRolePolicy string `mapstructure:"unknown_role_policy"`
}

// InvitationConfig holds invitation lifecycle settings.
type InvitationConfig struct {
	Expiry           time.Duration `mapstructure:"expiry"`
	TokenLength      int           `mapstructure:"token_length"`
	BaseURL          string        `mapstructure:"base_url"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	SweepTimeout     time.Duration `mapstructure:"sweep_timeout"`
	RedeemRateLimit  int           `mapstructure:"redeem_rate_limit"`
	RedeemRateWindow time.Duration `mapstructure:"redeem_rate_window"`
}

// ApprovalConfig holds approval request limits.
type ApprovalConfig struct {
	MaxSteps            int `mapstructure:"max_steps"`
	MaxApproversPerStep int `mapstructure:"max_approvers_per_step"`
}

// NotificationConfig holds delivery settings.
type NotificationConfig struct {
	// Driver is "smtp" or "log".
	Driver               string        `mapstructure:"driver"`
	DedupeTTL            time.Duration `mapstructure:"dedupe_ttl"`
	MaxConcurrentLookups int           `mapstructure:"max_concurrent_lookups"`
	SMTP                 SMTPConfig    `mapstructure:"smtp"`
	Breaker              BreakerConfig `mapstructure:"breaker"`
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	SSL        bool   `mapstructure:"ssl"`
	SkipVerify bool   `mapstructure:"skip_verify"`
	FromEmail  string `mapstructure:"from_email"`
	FromName   string `mapstructure:"from_name"`
}

// BreakerConfig holds circuit breaker settings for delivery.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	Interval         time.Duration `mapstructure:"interval"`
}

// StoreConfig bounds store and delivery calls.
type StoreConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	NotifyTimeout    time.Duration `mapstructure:"notify_timeout"`
}

// TriggersConfig holds the Postgres LISTEN settings.
type TriggersConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/approvenow")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("APPROVENOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Short names for secrets.
	if secret := os.Getenv("APPROVENOW_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("APPROVENOW_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("APPROVENOW_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if password := os.Getenv("APPROVENOW_SMTP_PASSWORD"); password != "" {
		cfg.Notification.SMTP.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	switch c.Access.UnknownRolePolicy {
	case "viewer", "deny":
	default:
		errs = append(errs, fmt.Errorf("access.unknown_role_policy: unknown policy %q", c.Access.UnknownRolePolicy))
	}
	switch c.Notification.Driver {
	case "smtp":
		if c.Notification.SMTP.Host == "" {
			errs = append(errs, errors.New("notification.smtp.host is required for the smtp driver"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("notification.driver: unknown driver %q", c.Notification.Driver))
	}

	positive := map[string]time.Duration{
		"invitation.expiry":                 c.Invitation.Expiry,
		"invitation.sweep_interval":         c.Invitation.SweepInterval,
		"invitation.sweep_timeout":          c.Invitation.SweepTimeout,
		"invitation.redeem_rate_window":     c.Invitation.RedeemRateWindow,
		"notification.dedupe_ttl":           c.Notification.DedupeTTL,
		"store.operation_timeout":           c.Store.OperationTimeout,
		"store.notify_timeout":              c.Store.NotifyTimeout,
		"server.shutdown_timeout":           c.Server.ShutdownTimeout,
		"notification.breaker.open_timeout": c.Notification.Breaker.OpenTimeout,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	if c.Invitation.TokenLength < 16 {
		errs = append(errs, errors.New("invitation.token_length must be at least 16"))
	}
	if c.Triggers.Enabled && c.Database.Driver != "postgres" {
		errs = append(errs, errors.New("triggers.enabled requires the postgres driver"))
	}

	return errors.Join(errs...)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"https://approvenow.app"})
	v.SetDefault("server.internal_token", "")
	v.SetDefault("server.idempotency_ttl", 24*time.Hour)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "approvenow")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.leeway", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Access defaults
	v.SetDefault("access.unknown_role_policy", "viewer")

	// Invitation defaults
	v.SetDefault("invitation.expiry", 7*24*time.Hour)
	v.SetDefault("invitation.token_length", 32)
	v.SetDefault("invitation.base_url", "https://approvenow.app")
	v.SetDefault("invitation.sweep_interval", 24*time.Hour)
	v.SetDefault("invitation.sweep_timeout", 5*time.Minute)
	v.SetDefault("invitation.redeem_rate_limit", 20)
	v.SetDefault("invitation.redeem_rate_window", time.Minute)

	// Approval defaults
	v.SetDefault("approval.max_steps", 10)
	v.SetDefault("approval.max_approvers_per_step", 50)

	// Notification defaults
	v.SetDefault("notification.driver", "log")
	v.SetDefault("notification.dedupe_ttl", 72*time.Hour)
	v.SetDefault("notification.max_concurrent_lookups", 8)
	v.SetDefault("notification.smtp.host", "")
	v.SetDefault("notification.smtp.port", 587)
	v.SetDefault("notification.smtp.username", "")
	v.SetDefault("notification.smtp.password", "")
	v.SetDefault("notification.smtp.ssl", false)
	v.SetDefault("notification.smtp.skip_verify", false)
	v.SetDefault("notification.smtp.from_email", "noreply@approvenow.app")
	v.SetDefault("notification.smtp.from_name", "Approve Now")
	v.SetDefault("notification.breaker.failure_threshold", 5)
	v.SetDefault("notification.breaker.open_timeout", 30*time.Second)
	v.SetDefault("notification.breaker.interval", time.Minute)

	// Store defaults
	v.SetDefault("store.operation_timeout", 5*time.Second)
	v.SetDefault("store.notify_timeout", 10*time.Second)

	// Trigger defaults
	v.SetDefault("triggers.enabled", false)
	v.SetDefault("triggers.channel", "approvenow_store_events")
}
