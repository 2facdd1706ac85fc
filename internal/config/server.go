package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// JWTConfig настройки токенов доступа
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig подключение к Redis для ключей идемпотентности
type RedisConfig struct {
	URL string `mapstructure:"url"` // пусто = хранение в памяти
}

// IdempotencyConfig время хранения ключей идемпотентности
type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig лимит запросов на запись для одного пользователя
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Server конфигурация сервера
type Server struct {
	Log             LogConfig         `mapstructure:"log"`
	JWT             JWTConfig         `mapstructure:"jwt"`
	Addr            string            `mapstructure:"addr"`
	DB              string            `mapstructure:"db"`
	Redis           RedisConfig       `mapstructure:"redis"`
	Idempotency     IdempotencyConfig `mapstructure:"idempotency"`
	RateLimit       RateLimitConfig   `mapstructure:"ratelimit"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout"`
}

var serverDefaults = map[string]any{
	"addr":               ":8080",
	"db":                 "gophbudget.db",
	"jwt.secret":         "",
	"jwt.ttl":            24 * time.Hour,
	"redis.url":          "",
	"idempotency.ttl":    24 * time.Hour,
	"ratelimit.requests": 120,
	"ratelimit.window":   time.Minute,
	"shutdown_timeout":   10 * time.Second,
	"log.level":          "info",
	"log.format":         "text",
}

var serverFlags = []flagBinding{
	{flag: "addr", key: "addr"},
	{flag: "db", key: "db"},
	{flag: "redis-url", key: "redis.url"},
	{flag: "log-level", key: "log.level"},
	{flag: "log-format", key: "log.format"},
}

// NewServerViper returns a viper instance with server defaults and env binding.
func NewServerViper() *viper.Viper {
	return newViper(serverDefaults)
}

// RegisterServerFlags объявляет флаги сервера и связывает их с v
func RegisterServerFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("addr", serverDefaults["addr"].(string), "HTTP listen address")
	fs.String("db", serverDefaults["db"].(string), "Path to SQLite database")
	fs.String("redis-url", "", "Redis URL for idempotency keys (optional)")
	fs.String("log-level", "info", "Log level: debug|info|warn|error")
	fs.String("log-format", "text", "Log format: text|json")

	return bindFlags(v, fs, serverFlags)
}

// LoadServer читает конфигурацию сервера. path может быть пустым.
func LoadServer(v *viper.Viper, path string) (*Server, error) {
	var c Server
	if err := load(v, path, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate проверяет значения конфигурации сервера
func (c *Server) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr: %w", errEmpty)
	}
	if c.DB == "" {
		return fmt.Errorf("db: %w", errEmpty)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret: %w", errEmpty)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive")
	}
	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("idempotency.ttl must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.requests and ratelimit.window must be positive")
	}
	return validateLog(c.Log)
}
