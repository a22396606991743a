package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apphub-org/apphub/pkg/trace"
)

const (
	// MinSecretKeyLength is the shortest accepted token signing secret
	MinSecretKeyLength = 32

	defaultTokenDuration = 24 * time.Hour
	defaultSessionMaxAge = 24 * time.Hour
	defaultLoginWindow   = 15 * time.Minute
	defaultLoginAttempts = 5
)

var (
	ErrMissingJWTSecret     = errors.New("jwt.secret_key must be set")
	ErrWeakJWTSecret        = fmt.Errorf("jwt.secret_key must be at least %d characters", MinSecretKeyLength)
	ErrMissingSessionSecret = errors.New("session.secret must be set")
)

type (
	APIServerConfig struct {
		Server     ServerConfig     `yaml:"server"`
		Database   DatabaseConfig   `yaml:"database"`
		JWT        JWTConfig        `yaml:"jwt"`
		Session    SessionConfig    `yaml:"session"`
		RateLimit  RateLimitConfig  `yaml:"rate_limit"`
		Logger     LoggerConfig     `yaml:"logger"`
		SuperAdmin SuperAdminConfig `yaml:"super_admin"`
		I18n       I18nConfig       `yaml:"i18n"`
		Metrics    MetricsConfig    `yaml:"metrics"`
		Tracing    trace.Config     `yaml:"tracing"`
	}

	ServerConfig struct {
		Addr            string        `yaml:"addr"` // listen address, e.g. ":5234"
		Mode            string        `yaml:"mode"` // gin mode: debug, release, test
		PID             string        `yaml:"pid"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TrustedProxies  []string      `yaml:"trusted_proxies"`
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
		LogLevel string `yaml:"log_level"`
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// SessionConfig configures the server side session store
	SessionConfig struct {
		Type   string        `yaml:"type"` // redis (default, revocable) or cookie
		Name   string        `yaml:"name"` // cookie name
		Secret string        `yaml:"secret"`
		MaxAge time.Duration `yaml:"max_age"`
		Secure bool          `yaml:"secure"`
		Redis  RedisConfig   `yaml:"redis"`
	}

	// RedisConfig is shared by the redis backed stores. An empty Addr starts
	// an embedded server.
	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}

	RateLimitConfig struct {
		Login LoginLimitConfig `yaml:"login"`
		API   APILimitConfig   `yaml:"api"`
	}

	// LoginLimitConfig bounds login attempts per client address
	LoginLimitConfig struct {
		Type        string        `yaml:"type"` // memory or redis
		MaxAttempts int           `yaml:"max_attempts"`
		Window      time.Duration `yaml:"window"`
		Redis       RedisConfig   `yaml:"redis"`
	}

	// APILimitConfig is a token bucket applied to every request
	APILimitConfig struct {
		Enabled   bool    `yaml:"enabled"`
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	}
)

// SetDefaults fills in zero values
func (c *APIServerConfig) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5234"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.DBName == "" {
		c.Database.DBName = "data/apphub.db"
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = defaultTokenDuration
	}
	if c.Session.Type == "" {
		c.Session.Type = "redis"
	}
	if c.Session.Name == "" {
		c.Session.Name = "apphub_session"
	}
	if c.Session.MaxAge <= 0 {
		c.Session.MaxAge = defaultSessionMaxAge
	}
	if c.RateLimit.Login.Type == "" {
		c.RateLimit.Login.Type = "memory"
	}
	if c.RateLimit.Login.MaxAttempts <= 0 {
		c.RateLimit.Login.MaxAttempts = defaultLoginAttempts
	}
	if c.RateLimit.Login.Window <= 0 {
		c.RateLimit.Login.Window = defaultLoginWindow
	}
	if c.RateLimit.API.PerSecond <= 0 {
		c.RateLimit.API.PerSecond = 20
	}
	if c.RateLimit.API.Burst <= 0 {
		c.RateLimit.API.Burst = 40
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "apphub"
	}
	if c.I18n.DefaultLanguage == "" {
		c.I18n.DefaultLanguage = "en"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "apphub-apiserver"
	}
}

// Validate refuses configurations that would sign tokens or sessions with a
// missing or guessable secret.
func (c *APIServerConfig) Validate() error {
	var errs []error
	switch {
	case c.JWT.SecretKey == "":
		errs = append(errs, ErrMissingJWTSecret)
	case len(c.JWT.SecretKey) < MinSecretKeyLength:
		errs = append(errs, ErrWeakJWTSecret)
	}
	if c.Session.Secret == "" {
		errs = append(errs, ErrMissingSessionSecret)
	}
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported database type: %s", c.Database.Type))
	}
	switch c.Session.Type {
	case "cookie", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported session type: %s", c.Session.Type))
	}
	switch c.RateLimit.Login.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported login limiter type: %s", c.RateLimit.Login.Type))
	}
	return errors.Join(errs...)
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		if c.DBName != ":memory:" {
			// Ensure the directory for the SQLite database exists.
			if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
				panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
			}
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
