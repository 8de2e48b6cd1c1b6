package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "roster-search/internal/common/errors"
)

const (
	RosterSourceFile          = "file"
	RosterSourcePostgres      = "postgres"
	RosterSourceElasticsearch = "elasticsearch"

	StateBackendRedis  = "redis"
	StateBackendMemory = "memory"

	LocationProviderHTTP   = "http"
	LocationProviderStatic = "static"
)

// Load reads config.yaml, then config.<APP_ENVIRONMENT>.yaml over it, with
// environment variables taking precedence.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDR"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// ApplyDefaults fills optional fields; exported for callers that build a
// Config by hand.
func ApplyDefaults(cfg *Config) {
	applyDefaults(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "roster-search"
	}

	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = 12
	}
	if cfg.Search.PersistDelayMs == 0 {
		cfg.Search.PersistDelayMs = 50
	}
	if cfg.Search.StateBackend == "" {
		cfg.Search.StateBackend = StateBackendRedis
	}

	if cfg.Roster.Source == "" {
		cfg.Roster.Source = RosterSourceFile
	}
	if cfg.Roster.CreatorIndex == "" {
		cfg.Roster.CreatorIndex = "creators"
	}
	if cfg.Roster.BrandIndex == "" {
		cfg.Roster.BrandIndex = "brands"
	}
	if cfg.Roster.BatchSize == 0 {
		cfg.Roster.BatchSize = 500
	}

	if cfg.Location.Provider == "" {
		cfg.Location.Provider = LocationProviderHTTP
	}
	if cfg.Location.URL == "" {
		cfg.Location.URL = "http://ip-api.com/json/"
	}
	if cfg.Location.Timeout == 0 {
		cfg.Location.Timeout = 5000
	}
	if cfg.Location.BreakerFailures == 0 {
		cfg.Location.BreakerFailures = 3
	}
	if cfg.Location.BreakerResetMs == 0 {
		cfg.Location.BreakerResetMs = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Search.PageSize < 0 {
		return apperrors.NewConfigInvalidError("search.page_size must be positive")
	}
	if cfg.Roster.CacheTTLSecs < 0 {
		return apperrors.NewConfigInvalidError("roster.cache_ttl_seconds must not be negative")
	}
	if cfg.Search.PersistDelayMs < 0 {
		return apperrors.NewConfigInvalidError("search.persist_delay_ms must not be negative")
	}

	switch cfg.Search.StateBackend {
	case StateBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return apperrors.NewConfigInvalidError("database.redis.address is required for the redis state backend")
		}
	case StateBackendMemory:
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown search.state_backend %q", cfg.Search.StateBackend))
	}

	switch cfg.Roster.Source {
	case RosterSourceFile:
		if cfg.Roster.CreatorsPath == "" && cfg.Roster.BrandsPath == "" {
			return apperrors.NewConfigInvalidError("roster.creators_path or roster.brands_path is required for the file source")
		}
	case RosterSourcePostgres:
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			return apperrors.NewConfigInvalidError("database.postgres.host and database.postgres.database are required for the postgres source")
		}
	case RosterSourceElasticsearch:
		if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
			return apperrors.NewConfigInvalidError("database.elasticsearch.addresses or url is required for the elasticsearch source")
		}
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown roster.source %q", cfg.Roster.Source))
	}

	switch cfg.Location.Provider {
	case LocationProviderHTTP, LocationProviderStatic:
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown location.provider %q", cfg.Location.Provider))
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// StateTTL is the expiry applied to persisted query state.
func (s SearchConfig) StateTTL() time.Duration {
	return time.Duration(s.StateTTLHours) * time.Hour
}

// CacheTTL is how long a loaded roster is served before it is fetched again.
func (r RosterConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSecs) * time.Second
}

// NamespaceKey returns the storage key for a search surface, e.g.
// "creator-search-state".
func (s SearchConfig) NamespaceKey(surface string) string {
	return s.KeyPrefix + surface + "-search-state"
}
