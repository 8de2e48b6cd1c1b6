package config

import "fmt"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Roster   RosterConfig   `mapstructure:"roster"`
	Location LocationConfig `mapstructure:"location"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig controls paging and query-state persistence.
type SearchConfig struct {
	PageSize       int    `mapstructure:"page_size"`
	PersistDelayMs int    `mapstructure:"persist_delay_ms"`
	StateTTLHours  int    `mapstructure:"state_ttl_hours"` // 0 keeps state forever
	KeyPrefix      string `mapstructure:"key_prefix"`
	StateBackend   string `mapstructure:"state_backend"` // redis | memory
	HierarchyPath  string `mapstructure:"hierarchy_path"`
}

// RosterConfig selects where roster records come from.
type RosterConfig struct {
	Source       string `mapstructure:"source"` // file | postgres | elasticsearch
	CreatorsPath string `mapstructure:"creators_path"`
	BrandsPath   string `mapstructure:"brands_path"`
	CreatorIndex string `mapstructure:"creator_index"`
	BrandIndex   string `mapstructure:"brand_index"`
	BatchSize    int    `mapstructure:"batch_size"`
	CacheTTLSecs int    `mapstructure:"cache_ttl_seconds"` // 0 caches until reload
}

type LocationConfig struct {
	Provider  string  `mapstructure:"provider"` // http | static
	URL       string  `mapstructure:"url"`
	Timeout   int     `mapstructure:"timeout"` // milliseconds
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`

	BreakerFailures int `mapstructure:"breaker_failures"`
	BreakerResetMs  int `mapstructure:"breaker_reset_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
