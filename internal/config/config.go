// Package config provides configuration management for aaradio using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/aaradio/internal/urlutil"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "AARADIO"

// Default configuration values.
const (
	defaultService         = "di"
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultHTTPTimeout     = 30 * time.Second
	defaultMaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration for the application.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	AudioAddict AudioAddictConfig `mapstructure:"audioaddict"`
	HTTPClient  HTTPClientConfig  `mapstructure:"http_client"`
	Server      ServerConfig      `mapstructure:"server"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// AudioAddictConfig holds the listen settings applied to every client.
type AudioAddictConfig struct {
	Service          string `mapstructure:"service"`        // di, sky, jazzradio, rockradio
	StreamQuality    string `mapstructure:"stream_quality"` // public3, premium_high, android_premium_high
	SourcePreference string `mapstructure:"source_preference"`
	ListenKey        string `mapstructure:"listen_key"`
}

// HTTPClientConfig holds outbound HTTP settings.
type HTTPClientConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	UserAgent           string        `mapstructure:"user_agent"` // empty = aaradio/<version>
	MaxResponseSize     int64         `mapstructure:"max_response_size"`
	EnableDecompression bool          `mapstructure:"enable_decompression"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RefreshSchedule is a 6-field cron expression for refreshing channel
	// directories. Empty disables scheduled refresh.
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	// PublicURL is the externally reachable base URL used in generated
	// playlists. Empty derives it from the incoming request.
	PublicURL string `mapstructure:"public_url"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with AARADIO_ and use underscores for nesting.
// Example: AARADIO_AUDIOADDICT_LISTEN_KEY=abc123.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aaradio")
		v.AddConfigPath("$HOME/.aaradio")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// AudioAddict defaults
	v.SetDefault("audioaddict.service", defaultService)
	v.SetDefault("audioaddict.stream_quality", string(audioaddict.DefaultStreamQuality))
	v.SetDefault("audioaddict.source_preference", "")
	v.SetDefault("audioaddict.listen_key", "")

	// HTTP client defaults
	v.SetDefault("http_client.timeout", defaultHTTPTimeout)
	v.SetDefault("http_client.user_agent", "")
	v.SetDefault("http_client.max_response_size", defaultMaxResponseSize)
	v.SetDefault("http_client.enable_decompression", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.idle_timeout", defaultIdleTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.refresh_schedule", "")
	v.SetDefault("server.public_url", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// AudioAddict validation
	if c.AudioAddict.Service != "" {
		if _, err := audioaddict.ParseService(c.AudioAddict.Service); err != nil {
			return fmt.Errorf("audioaddict.service: %w", err)
		}
	}
	if _, err := audioaddict.ParseStreamQuality(c.AudioAddict.StreamQuality); err != nil {
		return fmt.Errorf("audioaddict.stream_quality: %w", err)
	}

	// HTTP client validation
	if c.HTTPClient.Timeout < 0 {
		return fmt.Errorf("http_client.timeout must not be negative")
	}
	if c.HTTPClient.MaxResponseSize < 0 {
		return fmt.Errorf("http_client.max_response_size must not be negative")
	}

	// Server validation
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}
	if c.Server.PublicURL != "" {
		if err := urlutil.ValidateBaseURL(c.Server.PublicURL); err != nil {
			return fmt.Errorf("server.public_url: %w", err)
		}
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
