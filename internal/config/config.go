// Package config loads server configuration from an optional YAML file
// with TASKHUB_* environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// DBPath is the path to the SQLite database file.
	DBPath string `mapstructure:"db_path"`

	// StaticDir holds the built frontend; empty runs API-only.
	StaticDir string `mapstructure:"static_dir"`

	// JWTSecret signs bearer tokens. Required outside of tests.
	JWTSecret string `mapstructure:"jwt_secret"`

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

func defaults() *Config {
	return &Config{
		Addr:     ":8080",
		DBPath:   "data/taskhub.db",
		TokenTTL: 24 * time.Hour,
	}
}

// Load reads configuration from path (optional; a missing file yields
// defaults) and applies TASKHUB_-prefixed environment overrides, e.g.
// TASKHUB_ADDR, TASKHUB_DB_PATH, TASKHUB_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskhub")
	v.AutomaticEnv()

	cfg := defaults()
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("static_dir", cfg.StaticDir)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("token_ttl", cfg.TokenTTL)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (set TASKHUB_JWT_SECRET)")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return cfg, nil
}
