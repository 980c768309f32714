package config

import (
	"fmt"
	"os"
	"strconv"

	"stock-watchlist/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied to fields the YAML file leaves empty
const (
	DefaultStorageKey      = "watchlist"
	DefaultRefreshInterval = 60
	DefaultOpenHour        = 9
	DefaultCloseHour       = 16
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, then applies .env and
// WATCHLIST_* environment overrides.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// 2. Environment overrides (.env is optional)
	_ = godotenv.Load()
	config.ApplyEnv(os.Getenv)

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Parse unmarshals YAML and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "file"
	}
	if c.Storage.StorageKey == "" {
		c.Storage.StorageKey = DefaultStorageKey
	}
	if c.Gateway.Type == "" {
		c.Gateway.Type = "api"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10
	}
	if c.Network.ConcurrentRequests == 0 {
		c.Network.ConcurrentRequests = 4
	}
	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = DefaultRefreshInterval
	}
	if c.Refresh.OpenHour == 0 && c.Refresh.CloseHour == 0 {
		c.Refresh.OpenHour = DefaultOpenHour
		c.Refresh.CloseHour = DefaultCloseHour
	}
	if c.Refresh.MarketHours == "" {
		c.Refresh.MarketHours = "simple"
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides file values with WATCHLIST_* variables. getenv is
// os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("WATCHLIST_API_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := getenv("WATCHLIST_GATEWAY"); v != "" {
		c.Gateway.Type = v
	}
	if v := getenv("WATCHLIST_DB_TYPE"); v != "" {
		c.Storage.DBType = v
	}
	if v := getenv("WATCHLIST_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := getenv("WATCHLIST_DB_DSN"); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := getenv("WATCHLIST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("WATCHLIST_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := getenv("WATCHLIST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Storage
	switch c.Storage.DBType {
	case "file", "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for %s", c.Storage.DBType)
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Gateway
	switch c.Gateway.Type {
	case "api":
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway base_url cannot be empty for the api gateway")
		}
	case "yahoo":
	default:
		return fmt.Errorf("unknown gateway type: %q", c.Gateway.Type)
	}

	// Refresh
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0")
	}
	if c.Refresh.OpenHour < 0 || c.Refresh.CloseHour > 24 || c.Refresh.OpenHour >= c.Refresh.CloseHour {
		return fmt.Errorf("invalid market hours window: %d-%d", c.Refresh.OpenHour, c.Refresh.CloseHour)
	}
	if c.Refresh.MarketHours != "simple" && c.Refresh.MarketHours != "calendar" {
		return fmt.Errorf("unknown market_hours mode: %q", c.Refresh.MarketHours)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
