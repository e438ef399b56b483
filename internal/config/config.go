package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Backend  BackendConfig  `koanf:"backend"`
	Cache    CacheConfig    `koanf:"cache"`
	Orders   OrdersConfig   `koanf:"orders"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string          `koanf:"host"`
	Port       int             `koanf:"port"`
	Mode       string          `koanf:"mode"`
	CSRFSecret string          `koanf:"csrf_secret"`
	Timeout    string          `koanf:"timeout"`
	CORS       CORSConfig      `koanf:"cors"`
	RateLimit  RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// DatabaseConfig holds database connection settings. The database stores
// saved views only.
type DatabaseConfig struct {
	Driver      string         `koanf:"driver"`
	AutoMigrate bool           `koanf:"auto_migrate"`
	SQLite      SQLiteConfig   `koanf:"sqlite"`
	Postgres    PostgresConfig `koanf:"postgres"`
	Pool        PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// BackendConfig describes the remote order-management backend.
type BackendConfig struct {
	BaseURL      string      `koanf:"base_url"`
	Timeout      string      `koanf:"timeout"`
	Retries      int         `koanf:"retries"`
	RetryBackoff string      `koanf:"retry_backoff"`
	MaxBodyBytes int64       `koanf:"max_body_bytes"`
	Token        TokenConfig `koanf:"token"`
}

// Token modes.
const (
	TokenModeNone   = "none"
	TokenModeStatic = "static"
	TokenModeJWT    = "jwt"
)

// TokenConfig selects how backend requests are authorized.
type TokenConfig struct {
	Mode      string `koanf:"mode"`
	Static    string `koanf:"static"`
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
	Subject   string `koanf:"subject"`
	TTL       string `koanf:"ttl"`
}

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// CacheConfig holds the order query cache settings.
type CacheConfig struct {
	Enabled bool        `koanf:"enabled"`
	Driver  string      `koanf:"driver"`
	TTL     string      `koanf:"ttl"`
	MaxSize int         `koanf:"max_size"`
	Redis   RedisConfig `koanf:"redis"`
}

// RedisConfig holds the redis connection used by the redis cache driver.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// OrdersConfig holds presentation settings of the order pages.
type OrdersConfig struct {
	// PhoneRegion is the ISO 3166 region assumed for contact numbers
	// without a country code.
	PhoneRegion string `koanf:"phone_region"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__DATABASE__POOL__MAX_IDLE_CONNS=20 overrides database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config file.
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// Overlay environment variables with prefix APP__.
	// APP__SERVER__PORT -> server.port
	// APP__DATABASE__POOL__MAX_IDLE_CONNS -> database.pool.max_idle_conns
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values.
func (c *Config) Validate() error {
	// Validate server.mode.
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	// Validate server.port range.
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	// Validate server.host.
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Validate database.driver.
	switch c.Database.Driver {
	case "sqlite", "postgres":
		// ok
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	if c.Database.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	}

	// When driver is postgres, required connection fields must be valid.
	if c.Database.Driver == "postgres" {
		host := strings.TrimSpace(c.Database.Postgres.Host)
		if host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", c.Database.Postgres.Port)
		}
		user := strings.TrimSpace(c.Database.Postgres.User)
		if user == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(c.Database.Postgres.DBName)
		if dbName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(c.Database.Postgres.SSLMode)

		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			// ok
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", c.Database.Postgres.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if c.Server.Mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
				// ok
			default:
				return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", c.Database.Postgres.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}

		c.Database.Postgres.Host = host
		c.Database.Postgres.User = user
		c.Database.Postgres.DBName = dbName
		c.Database.Postgres.SSLMode = sslMode
	}

	// Normalize optional duration fields: whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	c.Backend.Timeout = strings.TrimSpace(c.Backend.Timeout)
	c.Backend.RetryBackoff = strings.TrimSpace(c.Backend.RetryBackoff)
	c.Backend.Token.TTL = strings.TrimSpace(c.Backend.Token.TTL)
	c.Cache.TTL = strings.TrimSpace(c.Cache.TTL)

	optionalDurations := []struct {
		name  string
		value string
	}{
		{"server.timeout", c.Server.Timeout},
		{"server.cors.max_age", c.Server.CORS.MaxAge},
		{"database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime},
		{"backend.timeout", c.Backend.Timeout},
		{"backend.retry_backoff", c.Backend.RetryBackoff},
		{"backend.token.ttl", c.Backend.Token.TTL},
	}
	for _, f := range optionalDurations {
		if f.value == "" {
			continue
		}
		if err := checkPositiveDuration(f.name, f.value); err != nil {
			return err
		}
	}

	// Validate server.rate_limit (when enabled, rps and burst must be positive).
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
	}

	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}

	c.Orders.PhoneRegion = strings.ToUpper(strings.TrimSpace(c.Orders.PhoneRegion))
	if c.Orders.PhoneRegion == "" {
		c.Orders.PhoneRegion = "DE"
	}
	if len(c.Orders.PhoneRegion) != 2 {
		return fmt.Errorf("invalid orders.phone_region %q: must be a two-letter region code", c.Orders.PhoneRegion)
	}

	// Validate log.level.
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	// Validate log.format.
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

func (c *Config) validateBackend() error {
	b := &c.Backend

	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url %q: must be an absolute http(s) URL", b.BaseURL)
	}
	if b.Retries < 0 || b.Retries > 5 {
		return fmt.Errorf("invalid backend.retries %d: must be between 0 and 5", b.Retries)
	}
	if b.MaxBodyBytes < 0 {
		return fmt.Errorf("invalid backend.max_body_bytes %d: must not be negative", b.MaxBodyBytes)
	}

	t := &b.Token
	t.Mode = strings.ToLower(strings.TrimSpace(t.Mode))
	if t.Mode == "" {
		t.Mode = TokenModeNone
	}
	switch t.Mode {
	case TokenModeNone:
	case TokenModeStatic:
		t.Static = strings.TrimSpace(t.Static)
		if t.Static == "" {
			return fmt.Errorf("backend.token.static is required when token mode is %q", TokenModeStatic)
		}
	case TokenModeJWT:
		t.JWTSecret = strings.TrimSpace(t.JWTSecret)
		if len(t.JWTSecret) < 32 {
			return fmt.Errorf("invalid backend.token.jwt_secret: must be at least 32 characters")
		}
		if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(t.JWTSecret) < 3 {
			return fmt.Errorf("backend.token.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
		}
	default:
		return fmt.Errorf("invalid backend.token.mode %q: must be one of %q, %q, %q", t.Mode, TokenModeNone, TokenModeStatic, TokenModeJWT)
	}
	return nil
}

func (c *Config) validateCache() error {
	cc := &c.Cache
	if !cc.Enabled {
		return nil
	}

	cc.Driver = strings.ToLower(strings.TrimSpace(cc.Driver))
	if cc.Driver == "" {
		cc.Driver = CacheDriverMemory
	}
	if cc.TTL == "" {
		return fmt.Errorf("cache.ttl is required when caching is enabled")
	}
	if err := checkPositiveDuration("cache.ttl", cc.TTL); err != nil {
		return err
	}

	switch cc.Driver {
	case CacheDriverMemory:
		if cc.MaxSize <= 0 {
			return fmt.Errorf("invalid cache.max_size %d: must be positive for the memory driver", cc.MaxSize)
		}
	case CacheDriverRedis:
		cc.Redis.Addr = strings.TrimSpace(cc.Redis.Addr)
		if cc.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis driver")
		}
		if cc.Redis.DB < 0 {
			return fmt.Errorf("invalid cache.redis.db %d: must not be negative", cc.Redis.DB)
		}
		if cc.Redis.Prefix == "" {
			cc.Redis.Prefix = "order360:"
		}
	default:
		return fmt.Errorf("invalid cache.driver %q: must be one of %q, %q", cc.Driver, CacheDriverMemory, CacheDriverRedis)
	}
	return nil
}

func checkPositiveDuration(name, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}

// DurationOr parses a validated duration field, returning def when unset.
func DurationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	if hasLower {
		classes++
	}
	if hasUpper {
		classes++
	}
	if hasDigit {
		classes++
	}
	if hasSymbol {
		classes++
	}

	return classes
}
