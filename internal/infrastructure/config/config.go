package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all coordinator configuration.
type Config struct {
	Server   ServerConfig
	Node     NodeConfig
	Session  SessionConfig
	Approval ApprovalConfig
	Storage  StorageConfig
	Logging  LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"9666"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// NodeConfig holds Hoosat node proxy configuration.
type NodeConfig struct {
	ProxyURL string        `envconfig:"NODE_PROXY_URL" default:"https://proxy.hoosat.net/api/v1"`
	Network  string        `envconfig:"NETWORK" default:"mainnet"`
	Timeout  time.Duration `envconfig:"NODE_TIMEOUT" default:"30s"`
}

// SessionConfig holds auto-lock policy.
type SessionConfig struct {
	Timeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
	Grace   time.Duration `envconfig:"SESSION_GRACE" default:"2m"`
}

// ApprovalConfig holds the human-approval wait policy.
type ApprovalConfig struct {
	// After this long without a decision the user is treated as
	// unreachable and the request fails closed.
	Timeout time.Duration `envconfig:"APPROVAL_TIMEOUT" default:"5m"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DataDir string `envconfig:"DATA_DIR" default:"/var/lib/hoosat-wallet"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9666",
			Host: "127.0.0.1",
		},
		Node: NodeConfig{
			ProxyURL: "https://proxy.hoosat.net/api/v1",
			Network:  "mainnet",
			Timeout:  30 * time.Second,
		},
		Session: SessionConfig{
			Timeout: 30 * time.Minute,
			Grace:   2 * time.Minute,
		},
		Approval: ApprovalConfig{
			Timeout: 5 * time.Minute,
		},
		Storage: StorageConfig{
			DataDir: "/var/lib/hoosat-wallet",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
