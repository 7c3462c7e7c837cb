package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pcchou102/cwa-weather/internal/cwa"
)

// defaultAPIKey is the publicly documented sample key from the CWA
// open-data guide. It works for the file API but is shared and
// rate-limited; set CWA_API_KEY for real deployments.
const defaultAPIKey = "CWA-EED186C4-DA85-4467-8C6F-F87B1111AA87"

// Config is the top-level configuration for cwa-weather.
type Config struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	LogFormat  string        `mapstructure:"log_format"`
	API        APIConfig     `mapstructure:"api"`
	Storage    StorageConfig `mapstructure:"storage"`
	Cache      CacheConfig   `mapstructure:"cache"`
}

// APIConfig holds upstream CWA API settings.
type APIConfig struct {
	Key                string        `mapstructure:"key"`
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// StorageConfig defines the database backend.
type StorageConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CacheConfig controls freshness gating and background refresh.
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // 0 disables
}

// Load reads configuration from flag path, env vars, then default file paths.
// Precedence: flag → $CWA_WEATHER_CONFIG env → ~/.config/cwa-weather/config.yaml
// → /etc/cwa-weather/config.yaml. A .env file in the working directory
// is loaded first so CWA_API_KEY can live there during development.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_format", "json")
	v.SetDefault("api.key", defaultAPIKey)
	v.SetDefault("api.base_url", cwa.DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "data.db")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.refresh_interval", time.Duration(0))

	// Env var support
	v.SetEnvPrefix("CWA_WEATHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if envPath := os.Getenv("CWA_WEATHER_CONFIG"); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cwa-weather"))
		}
		v.AddConfigPath("/etc/cwa-weather")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		// Warn if config file is world-readable; it may carry the key.
		if cfgPath := v.ConfigFileUsed(); cfgPath != "" {
			if info, err := os.Stat(cfgPath); err == nil {
				perm := info.Mode().Perm()
				if perm&0004 != 0 {
					slog.Warn("config file is world-readable", "path", cfgPath, "permissions", fmt.Sprintf("%04o", perm))
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// The original deployment used CWA_API_KEY; honor it as the
	// highest-precedence key source.
	if key := os.Getenv("CWA_API_KEY"); key != "" {
		cfg.API.Key = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete and correct.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("api.key is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}

	if c.Storage.Enabled {
		switch c.Storage.Driver {
		case "sqlite":
			if c.Storage.SQLite.Path == "" {
				return fmt.Errorf("storage.sqlite.path is required for sqlite driver")
			}
			dir := filepath.Dir(c.Storage.SQLite.Path)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0700); err != nil {
					return fmt.Errorf("creating storage directory %q: %w", dir, err)
				}
			}
		case "postgres":
			if c.Storage.Postgres.DSN == "" {
				return fmt.Errorf("storage.postgres.dsn is required for postgres driver")
			}
		default:
			return fmt.Errorf("storage.driver must be 'sqlite' or 'postgres', got %q", c.Storage.Driver)
		}
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr %q is not a valid address: %w", c.ListenAddr, err)
	}

	return nil
}

// DSN returns the appropriate DSN for the configured storage driver.
func (c *Config) DSN() string {
	switch c.Storage.Driver {
	case "sqlite":
		return c.Storage.SQLite.Path
	case "postgres":
		return c.Storage.Postgres.DSN
	default:
		return ""
	}
}
