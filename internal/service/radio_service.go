// Package service provides the business logic layer for aaradio.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/aaradio/internal/config"
	"github.com/jmylchreest/aaradio/internal/observability"
	"github.com/jmylchreest/aaradio/internal/urlutil"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// ServiceInfo describes one supported network.
type ServiceInfo struct {
	ID   string `json:"id" doc:"Service identifier" example:"di"`
	Name string `json:"name" doc:"Display name" example:"DI.fm"`
	URL  string `json:"url" doc:"Stream base URL" example:"http://listen.di.fm"`
}

// DirectoryStatus reports the cache state of one network's channel directory.
type DirectoryStatus struct {
	Service     string    `json:"service"`
	Channels    int       `json:"channels"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// radioClient is a client bound to one network. The client is not safe for
// concurrent use, so every call goes through mu.
type radioClient struct {
	mu     sync.Mutex
	client *audioaddict.Client

	channels    int
	lastRefresh time.Time
	lastError   string
}

// RadioService serves every supported network concurrently, keeping one
// AudioAddict client per network.
type RadioService struct {
	clients map[audioaddict.Service]*radioClient
	logger  *slog.Logger
}

// NewRadioService creates a client per supported network, each configured
// with the quality, source preference and listen key from cfg.
func NewRadioService(cfg config.AudioAddictConfig, opts ...audioaddict.ClientOption) (*RadioService, error) {
	s := &RadioService{
		clients: make(map[audioaddict.Service]*radioClient),
		logger:  slog.Default(),
	}

	for _, id := range audioaddict.ServiceIDs() {
		client, err := NewClient(cfg, opts...)
		if err != nil {
			return nil, err
		}
		if err := client.SetService(id.String()); err != nil {
			return nil, err
		}
		s.clients[id] = &radioClient{client: client}
	}

	return s, nil
}

// NewClient builds a single client from configuration. The service is only
// selected when cfg names one.
func NewClient(cfg config.AudioAddictConfig, opts ...audioaddict.ClientOption) (*audioaddict.Client, error) {
	client := audioaddict.NewClient(opts...)

	if cfg.Service != "" {
		if err := client.SetService(cfg.Service); err != nil {
			return nil, fmt.Errorf("audioaddict.service: %w", err)
		}
	}
	if cfg.StreamQuality != "" {
		if err := client.SetStreamQuality(cfg.StreamQuality); err != nil {
			return nil, fmt.Errorf("audioaddict.stream_quality: %w", err)
		}
	}
	client.SetSourcePreference(cfg.SourcePreference)
	client.SetListenKey(cfg.ListenKey)

	return client, nil
}

// WithLogger sets the logger for the service.
func (s *RadioService) WithLogger(logger *slog.Logger) *RadioService {
	s.logger = observability.WithComponent(logger, "radio")
	return s
}

// Services lists the supported networks in identifier order.
func (s *RadioService) Services() []ServiceInfo {
	ids := audioaddict.ServiceIDs()
	infos := make([]ServiceInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, ServiceInfo{
			ID:   id.String(),
			Name: id.DisplayName(),
			URL:  id.BaseURL(),
		})
	}
	return infos
}

// Channels returns the channel directory for a network, fetching it when it
// is not cached or refresh is set.
func (s *RadioService) Channels(ctx context.Context, service string, refresh bool) ([]audioaddict.Channel, error) {
	rc, err := s.lookup(service)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	channels, err := rc.client.Channels(ctx, refresh)
	rc.record(len(channels), refresh, err)
	return channels, err
}

// Channel returns a copy of one channel record.
func (s *RadioService) Channel(ctx context.Context, service, key string) (audioaddict.Channel, error) {
	rc, err := s.lookup(service)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.client.Channel(ctx, key)
}

// StreamURL resolves a playable URL for a channel and marks it current.
func (s *RadioService) StreamURL(ctx context.Context, service, key string) (string, error) {
	rc, err := s.lookup(service)
	if err != nil {
		return "", err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	url, err := rc.client.StreamURL(ctx, key)
	if err != nil {
		return "", err
	}
	rc.client.SetCurrentChannel(key)

	s.logger.DebugContext(ctx, "resolved stream",
		slog.String("service", service),
		slog.String("channel", key),
		slog.String("url", urlutil.RedactQuery(url)),
	)
	return url, nil
}

// Refresh refetches the channel directory for a network and returns the
// number of channels now cached.
func (s *RadioService) Refresh(ctx context.Context, service string) (int, error) {
	channels, err := s.Channels(ctx, service, true)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "channel directory refreshed",
		slog.String("service", service),
		slog.Int("channels", len(channels)),
	)
	return len(channels), nil
}

// Status reports the directory cache state of every network.
func (s *RadioService) Status() []DirectoryStatus {
	ids := audioaddict.ServiceIDs()
	statuses := make([]DirectoryStatus, 0, len(ids))
	for _, id := range ids {
		rc := s.clients[id]
		rc.mu.Lock()
		statuses = append(statuses, DirectoryStatus{
			Service:     id.String(),
			Channels:    rc.channels,
			LastRefresh: rc.lastRefresh,
			LastError:   rc.lastError,
		})
		rc.mu.Unlock()
	}
	return statuses
}

func (s *RadioService) lookup(service string) (*radioClient, error) {
	id, err := audioaddict.ParseService(service)
	if err != nil {
		return nil, err
	}
	return s.clients[id], nil
}

// record updates the cache bookkeeping after a directory call. A failure
// leaves the previous count in place since the client keeps its cache.
func (rc *radioClient) record(count int, refresh bool, err error) {
	if err != nil {
		rc.lastError = err.Error()
		return
	}
	rc.lastError = ""
	if refresh || rc.lastRefresh.IsZero() {
		rc.lastRefresh = time.Now()
	}
	rc.channels = count
}
