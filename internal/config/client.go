package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QueueConfig настройки offline очереди
type QueueConfig struct {
	RetryPolicy string        `mapstructure:"retry_policy"` // none | exponential
	GracePeriod time.Duration `mapstructure:"grace_period"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
}

// NetworkConfig настройки проверки связи с сервером
type NetworkConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
}

// StatusConfig настройки локального сервера статуса очереди
type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

// Client конфигурация клиента
type Client struct {
	Log            LogConfig     `mapstructure:"log"`
	Server         string        `mapstructure:"server"`
	DB             string        `mapstructure:"db"`
	Status         StatusConfig  `mapstructure:"status"`
	Queue          QueueConfig   `mapstructure:"queue"`
	Network        NetworkConfig `mapstructure:"network"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

var clientDefaults = map[string]any{
	"server":                 "http://localhost:8080",
	"db":                     "gophbudget-client.db",
	"request_timeout":        30 * time.Second,
	"log.level":              "info",
	"log.format":             "text",
	"queue.grace_period":     3 * time.Second,
	"queue.retry_policy":     "none",
	"queue.backoff_base":     time.Second,
	"queue.backoff_max":      5 * time.Minute,
	"network.probe_interval": 5 * time.Second,
	"network.probe_timeout":  2 * time.Second,
	"status.addr":            "127.0.0.1:8090",
}

var clientFlags = []flagBinding{
	{flag: "server", key: "server"},
	{flag: "db", key: "db"},
	{flag: "log-level", key: "log.level"},
	{flag: "log-format", key: "log.format"},
	{flag: "status-addr", key: "status.addr"},
}

// NewClientViper returns a viper instance with client defaults and env binding.
func NewClientViper() *viper.Viper {
	return newViper(clientDefaults)
}

// RegisterClientFlags объявляет глобальные флаги клиента и связывает их с v
func RegisterClientFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("server", clientDefaults["server"].(string), "Server URL")
	fs.String("db", clientDefaults["db"].(string), "Path to local database")
	fs.String("log-level", "info", "Log level: debug|info|warn|error")
	fs.String("log-format", "text", "Log format: text|json")
	fs.String("status-addr", clientDefaults["status.addr"].(string), "Local daemon status address")

	return bindFlags(v, fs, clientFlags)
}

// LoadClient читает конфигурацию клиента. path может быть пустым.
func LoadClient(v *viper.Viper, path string) (*Client, error) {
	var c Client
	if err := load(v, path, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate проверяет значения конфигурации клиента
func (c *Client) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server: %w", errEmpty)
	}
	if c.DB == "" {
		return fmt.Errorf("db: %w", errEmpty)
	}
	if err := validateLog(c.Log); err != nil {
		return err
	}
	if c.Queue.GracePeriod < 0 {
		return fmt.Errorf("queue.grace_period must not be negative")
	}
	switch c.Queue.RetryPolicy {
	case "none":
	case "exponential":
		if c.Queue.BackoffBase <= 0 || c.Queue.BackoffMax < c.Queue.BackoffBase {
			return fmt.Errorf("queue.backoff_base must be positive and not exceed queue.backoff_max")
		}
	default:
		return fmt.Errorf("queue.retry_policy: unknown policy %q", c.Queue.RetryPolicy)
	}
	if c.Network.ProbeInterval <= 0 || c.Network.ProbeTimeout <= 0 {
		return fmt.Errorf("network.probe_interval and network.probe_timeout must be positive")
	}
	return nil
}
