package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Gateway  MGatewayConfig `yaml:"gateway"`
	Refresh  MRefreshConfig `yaml:"refresh"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // file, sqlite or postgres
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	StorageKey         string `yaml:"storage_key"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MGatewayConfig struct {
	Type    string `yaml:"type"` // api or yahoo
	BaseURL string `yaml:"base_url"`
}

type MRefreshConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	OpenHour        int    `yaml:"open_hour"`
	CloseHour       int    `yaml:"close_hour"`
	MarketHours     string `yaml:"market_hours"` // simple or calendar
}
