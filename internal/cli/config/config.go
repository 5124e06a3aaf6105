package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/logging"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/server"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

// FileName is the configuration file looked up in the working directory,
// without its extension
const FileName = "multicast"

// EnvPrefix prefixes environment overrides, e.g. MULTICAST_STORE_DRIVER
const EnvPrefix = "MULTICAST"

// Config represents the resolver configuration
type Config struct {
	// Graph is the default declaration graph document
	Graph  string        `mapstructure:"graph"`
	Log    LogConfig     `mapstructure:"log"`
	Store  store.Config  `mapstructure:"store"`
	Server server.Config `mapstructure:"server"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration from multicast.yaml in the working directory,
// or from path when it is not empty
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := server.DefaultConfig()
	v.SetDefault("graph", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.prefix", store.DefaultRedisPrefix)
	v.SetDefault("server.address", defaults.Address)
	v.SetDefault("server.read_timeout", defaults.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.IdleTimeout)
	v.SetDefault("server.read_header_timeout", defaults.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("server.max_header_bytes", defaults.MaxHeaderBytes)
	v.SetDefault("server.auth_secret", "")
	v.SetDefault("server.token_ttl", defaults.TokenTTL)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch cfg.Store.Driver {
	case "":
	case "sqlite3", "pgx", "redis":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %s", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of sqlite3, pgx, redis, got: %s", cfg.Store.Driver)
	}

	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if cfg.Server.AuthSecret != "" && cfg.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive when server.auth_secret is set")
	}
	return nil
}
