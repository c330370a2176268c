package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Session  SessionConfig  `mapstructure:"session"`
	Export   ExportConfig   `mapstructure:"export"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig points at the charging-platform REST backend.
type UpstreamConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// Timeout returns the upstream request timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMs) * time.Millisecond
}

type SessionConfig struct {
	Path     string `mapstructure:"path"` // directory for the session database file
	Name     string `mapstructure:"name"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// DSN returns the sqlite data source name for the session store.
func (s SessionConfig) DSN() string {
	return s.Path + "/" + s.Name + ".db"
}

// TTL returns the session lifetime as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

type ExportConfig struct {
	Title string `mapstructure:"title"` // heading printed on PDF exports
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("upstream.base_url", "http://localhost:5000/api")
	viper.SetDefault("upstream.timeout_ms", 15000)
	viper.SetDefault("session.path", "./data")
	viper.SetDefault("session.name", "sessions")
	viper.SetDefault("session.ttl_hours", 12)
	viper.SetDefault("export.title", "Charging Network Report")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine, defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
