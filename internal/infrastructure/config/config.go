package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Inventory InventoryConfig
	Console   ConsoleConfig
	Storage   StorageConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// AllowedOrigins restricts CORS and websocket origins. "*" allows all.
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// InventoryConfig points at the control plane that lists VMs.
type InventoryConfig struct {
	BaseURL         string        `envconfig:"INVENTORY_URL" default:"http://localhost:8080"`
	Token           string        `envconfig:"INVENTORY_TOKEN"`
	Timeout         time.Duration `envconfig:"INVENTORY_TIMEOUT" default:"10s"`
	RefreshInterval time.Duration `envconfig:"INVENTORY_REFRESH" default:"15s"`
	RequestsPerSec  float64       `envconfig:"INVENTORY_RPS" default:"5"`
	PageSize        int           `envconfig:"INVENTORY_PAGE_SIZE" default:"100"`
}

// ConsoleConfig bounds the workspace.
type ConsoleConfig struct {
	MaxSessions       int           `envconfig:"CONSOLE_MAX_SESSIONS" default:"12"`
	ThumbnailInterval time.Duration `envconfig:"CONSOLE_THUMBNAIL_INTERVAL" default:"1s"`
	ThumbnailMaxBytes int           `envconfig:"CONSOLE_THUMBNAIL_MAX_BYTES" default:"524288"`
	PrimaryModifier   string        `envconfig:"CONSOLE_PRIMARY_MODIFIER" default:"ctrl"`
}

// StorageConfig controls workspace layout persistence.
type StorageConfig struct {
	Path    string `envconfig:"WORKSPACE_STORAGE_PATH" default:"/tmp/limiquantix-console/workspaces"`
	Enabled bool   `envconfig:"WORKSPACE_STORAGE_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the workspace cannot run with.
func (c *Config) Validate() error {
	if c.Console.MaxSessions < 0 {
		return fmt.Errorf("CONSOLE_MAX_SESSIONS must not be negative, got %d", c.Console.MaxSessions)
	}
	if c.Console.ThumbnailMaxBytes <= 0 {
		return fmt.Errorf("CONSOLE_THUMBNAIL_MAX_BYTES must be positive, got %d", c.Console.ThumbnailMaxBytes)
	}
	switch strings.ToLower(strings.TrimSpace(c.Console.PrimaryModifier)) {
	case "ctrl", "meta", "alt":
	default:
		return fmt.Errorf("CONSOLE_PRIMARY_MODIFIER must be ctrl, meta or alt, got %q", c.Console.PrimaryModifier)
	}
	if c.Inventory.BaseURL == "" {
		return errors.New("INVENTORY_URL is required")
	}
	if c.Inventory.RefreshInterval <= 0 {
		return fmt.Errorf("INVENTORY_REFRESH must be positive, got %s", c.Inventory.RefreshInterval)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Inventory: InventoryConfig{
			BaseURL:         "http://localhost:8080",
			Timeout:         10 * time.Second,
			RefreshInterval: 15 * time.Second,
			RequestsPerSec:  5,
			PageSize:        100,
		},
		Console: ConsoleConfig{
			MaxSessions:       12,
			ThumbnailInterval: time.Second,
			ThumbnailMaxBytes: 512 * 1024,
			PrimaryModifier:   "ctrl",
		},
		Storage: StorageConfig{
			Path:    "/tmp/limiquantix-console/workspaces",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
