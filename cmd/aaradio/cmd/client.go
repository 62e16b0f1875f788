package cmd

import (
	"log/slog"

	"github.com/jmylchreest/aaradio/internal/config"
	"github.com/jmylchreest/aaradio/internal/observability"
	"github.com/jmylchreest/aaradio/internal/service"
	"github.com/jmylchreest/aaradio/internal/version"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
	"github.com/jmylchreest/aaradio/pkg/httpclient"
)

// userAgent returns the configured User-Agent, falling back to aaradio/<version>.
func userAgent(cfg *config.Config) string {
	if cfg.HTTPClient.UserAgent != "" {
		return cfg.HTTPClient.UserAgent
	}
	return version.UserAgent()
}

// newHTTPClient builds the outbound transport from the http_client section.
func newHTTPClient(cfg *config.Config, logger *slog.Logger) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:             cfg.HTTPClient.Timeout,
		UserAgent:           userAgent(cfg),
		Logger:              observability.WithComponent(logger, "httpclient"),
		EnableDecompression: cfg.HTTPClient.EnableDecompression,
		MaxResponseSize:     cfg.HTTPClient.MaxResponseSize,
	})
}

// clientOptions wires an AudioAddict client to the shared transport.
func clientOptions(cfg *config.Config, hc *httpclient.Client, logger *slog.Logger) []audioaddict.ClientOption {
	return []audioaddict.ClientOption{
		audioaddict.WithHTTPClient(hc.StandardClient()),
		audioaddict.WithUserAgent(userAgent(cfg)),
		audioaddict.WithLogger(observability.WithComponent(logger, "audioaddict")),
	}
}

// newClient loads configuration and returns a client for the selected service.
func newClient() (*audioaddict.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.AudioAddict.Service == "" {
		return nil, audioaddict.ErrNoService
	}

	logger := slog.Default()
	hc := newHTTPClient(cfg, logger)
	return service.NewClient(cfg.AudioAddict, clientOptions(cfg, hc, logger)...)
}
