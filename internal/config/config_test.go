package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

func validTestConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		AudioAddict: AudioAddictConfig{
			Service:       "di",
			StreamQuality: "public3",
		},
		HTTPClient: HTTPClientConfig{Timeout: 30 * time.Second},
		Server:     ServerConfig{Port: 8080},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, time.RFC3339, cfg.Logging.TimeFormat)

	// AudioAddict defaults
	assert.Equal(t, "di", cfg.AudioAddict.Service)
	assert.Equal(t, string(audioaddict.QualityPublic3), cfg.AudioAddict.StreamQuality)
	assert.Empty(t, cfg.AudioAddict.ListenKey)
	assert.Empty(t, cfg.AudioAddict.SourcePreference)

	// HTTP client defaults
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, int64(10*1024*1024), cfg.HTTPClient.MaxResponseSize)
	assert.True(t, cfg.HTTPClient.EnableDecompression)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Server.RefreshSchedule)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: json
audioaddict:
  service: rockradio
  stream_quality: android_premium_high
  source_preference: prem4
  listen_key: abc123
http_client:
  timeout: 5s
server:
  port: 9090
  refresh_schedule: "0 0 */6 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "rockradio", cfg.AudioAddict.Service)
	assert.Equal(t, "android_premium_high", cfg.AudioAddict.StreamQuality)
	assert.Equal(t, "prem4", cfg.AudioAddict.SourcePreference)
	assert.Equal(t, "abc123", cfg.AudioAddict.ListenKey)
	assert.Equal(t, 5*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0 0 */6 * * *", cfg.Server.RefreshSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AARADIO_AUDIOADDICT_SERVICE", "jazzradio")
	t.Setenv("AARADIO_AUDIOADDICT_LISTEN_KEY", "envkey")
	t.Setenv("AARADIO_SERVER_PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "jazzradio", cfg.AudioAddict.Service)
	assert.Equal(t, "envkey", cfg.AudioAddict.ListenKey)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audioaddict: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audioaddict:\n  service: radiotunes\n"), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, audioaddict.ErrInvalidService)
}

func TestFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("audioaddict.stream_quality", "premium_high")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "premium_high", cfg.AudioAddict.StreamQuality)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty service is allowed", func(c *Config) { c.AudioAddict.Service = "" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad service", func(c *Config) { c.AudioAddict.Service = "radiotunes" }, "audioaddict.service"},
		{"bad quality", func(c *Config) { c.AudioAddict.StreamQuality = "premium" }, "audioaddict.stream_quality"},
		{"empty quality", func(c *Config) { c.AudioAddict.StreamQuality = "" }, "audioaddict.stream_quality"},
		{"negative timeout", func(c *Config) { c.HTTPClient.Timeout = -time.Second }, "http_client.timeout"},
		{"negative max size", func(c *Config) { c.HTTPClient.MaxResponseSize = -1 }, "http_client.max_response_size"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"public url", func(c *Config) { c.Server.PublicURL = "https://radio.example.com/aa" }, ""},
		{"public url without scheme", func(c *Config) { c.Server.PublicURL = "radio.example.com" }, "server.public_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}
